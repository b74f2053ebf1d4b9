package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when no credential is stored for a platform.
var ErrNotFound = errors.New("credential: not found")

// loadRetryDelay is how long Load waits before its single retry when a read
// races with a concurrent whole-file rewrite.
const loadRetryDelay = 100 * time.Millisecond

// Store reads and writes persisted session state keyed by platform identity.
// Layout: <dir>/<platform>_uploader/account.json, one file per platform.
// Saves replace the whole file atomically, so concurrent readers see either
// the old or the new document, never a mix.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the credential file path for a platform.
func (s *Store) Path(platform string) string {
	return filepath.Join(s.dir, platform+"_uploader", "account.json")
}

// Exists reports whether a credential is stored for the platform.
func (s *Store) Exists(platform string) bool {
	_, err := os.Stat(s.Path(platform))
	return err == nil
}

// Load reads the platform's credential. It returns ErrNotFound when no file
// exists. A transient read or decode failure is retried once: the file may
// have been mid-rewrite by a concurrent job.
func (s *Store) Load(platform string) (*State, error) {
	state, err := s.loadOnce(platform)
	if err == nil || errors.Is(err, ErrNotFound) {
		return state, err
	}

	time.Sleep(loadRetryDelay)
	return s.loadOnce(platform)
}

func (s *Store) loadOnce(platform string) (*State, error) {
	data, err := os.ReadFile(s.Path(platform))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read %s: %w", s.Path(platform), err)
	}

	state, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("credential: %s: %w", s.Path(platform), err)
	}
	return state, nil
}

// Save writes the platform's credential, replacing any previous one. The
// write goes through a temp file and rename so readers never observe a
// partial document.
func (s *Store) Save(platform string, state *State) error {
	data, err := state.Encode()
	if err != nil {
		return fmt.Errorf("credential: %w", err)
	}

	path := s.Path(platform)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("credential: create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("credential: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("credential: atomic rename %s: %w", path, err)
	}
	return nil
}
