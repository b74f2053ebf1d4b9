// Package platform defines the capability set a publish target must provide:
// its URLs, its selector catalogs, and hooks for the optional pipeline
// stages. The auth flow and publish pipeline consume adapters read-only.
package platform

import (
	"context"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
)

// Catalog is the per-platform selector data the fixed pipeline stages need.
// Selectors are data, not logic: a platform revises them when its UI drifts.
type Catalog struct {
	// MediaInput receives the video file
	MediaInput browser.LocatorSet

	// MediaProcessed are independent signals that the uploaded media is
	// ready; observing ANY one of them ends the processing wait
	MediaProcessed []browser.LocatorSet

	// Title is the work-title field
	Title browser.LocatorSet

	// TitleLimit truncates the title when positive
	TitleLimit int

	// TitleFallback is a rich-text zone that takes the title by keyboard
	// when the plain Title input is absent
	TitleFallback browser.LocatorSet

	// Description is the description editor; clicked then typed into, so
	// rich-text zones work as well as plain inputs
	Description browser.LocatorSet

	// TagField is the editor that receives tags; often the same element
	// as Description
	TagField browser.LocatorSet

	// TagMarker is the character that starts a tag; empty means "#"
	TagMarker string

	// TagCommitKey confirms a typed tag; empty means "Space"
	TagCommitKey string

	// Submit is the publish button
	Submit browser.LocatorSet

	// SubmitConfirm is an optional confirmation control some platforms
	// show after the publish click; absence is not an error
	SubmitConfirm browser.LocatorSet
}

// HookFunc is an adapter-defined action for one optional pipeline stage.
type HookFunc func(ctx context.Context, h browser.Handle) error

// CoverHook uploads a cover image through the platform's cover dialog.
type CoverHook func(ctx context.Context, h browser.Handle, coverPath string) error

// ScheduleHook switches the platform to scheduled publishing at the given time.
type ScheduleHook func(ctx context.Context, h browser.Handle, at time.Time) error

// Hooks are the optional stage implementations. A nil hook skips its stage.
type Hooks struct {
	SetCover          CoverHook
	ConfigureSchedule ScheduleHook
	PlatformExtras    HookFunc
}

// Adapter is the capability interface each target platform implements.
// The core never mutates adapter state.
type Adapter interface {
	// Key identifies the platform ("douyin", "tencent", ...)
	Key() string

	// LoginEntryURL is where interactive login starts
	LoginEntryURL() string

	// AuthenticatedLandingURL is the glob pattern a logged-in session's
	// URL matches after login completes
	AuthenticatedLandingURL() string

	// PublishSurfaceURL is the canonical authenticated publish page
	PublishSurfaceURL() string

	// PublishSuccessURLPattern is the glob pattern that positively
	// confirms a publish
	PublishSuccessURLPattern() string

	// RequiresLogin matches elements that only appear when the session is
	// NOT authenticated
	RequiresLogin() browser.LocatorSet

	// Locators returns the platform's selector catalog
	Locators() Catalog

	// Hooks returns the optional stage hooks
	Hooks() Hooks
}
