// Package credential persists browser session state per platform identity.
// It is pure data access: nothing here touches a browser, and validity of a
// stored credential is the auth flow's concern.
package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Cookie is a single persisted browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// StorageEntry is one key-value pair of an origin's local storage.
type StorageEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Origin holds the persisted storage entries for one origin.
type Origin struct {
	Origin       string         `json:"origin"`
	LocalStorage []StorageEntry `json:"localStorage"`
}

// State is the restorable representation of one session's authentication
// state: cookies plus per-origin storage. Restoring it into a session must
// never require user interaction.
type State struct {
	Cookies []Cookie `json:"cookies"`
	Origins []Origin `json:"origins,omitempty"`
}

// Decode parses a persisted credential document. Two shapes are recognized:
// the storage-state object ({"cookies": [...], "origins": [...]}) written by
// this tool, and a bare cookie array exported by other tooling.
func Decode(data []byte) (*State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("credential document is empty")
	}

	if trimmed[0] == '[' {
		var cookies []Cookie
		if err := json.Unmarshal(trimmed, &cookies); err != nil {
			return nil, fmt.Errorf("failed to decode cookie list: %w", err)
		}
		return &State{Cookies: cookies}, nil
	}

	var state State
	if err := json.Unmarshal(trimmed, &state); err != nil {
		return nil, fmt.Errorf("failed to decode storage state: %w", err)
	}
	return &state, nil
}

// Encode serializes the state in the storage-state shape.
func (s *State) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage state: %w", err)
	}
	return data, nil
}
