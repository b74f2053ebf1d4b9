// Package auth owns the session-credential lifecycle: interactive login,
// headless validation of a stored credential against the live site, and
// renewal on demand. The flow opens at most one browser session at a time
// and always releases it before returning.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/credential"
	"github.com/BadKid90s/Spreado/pkg/logging"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

var (
	// ErrCredentialMissing means no credential is stored for the platform.
	ErrCredentialMissing = errors.New("auth: no stored credential")

	// ErrCredentialInvalid means the stored credential no longer
	// authenticates against the live site.
	ErrCredentialInvalid = errors.New("auth: stored credential is no longer valid")
)

// LoginTimeoutError reports that the user did not complete interactive
// login before the bounded wait elapsed.
type LoginTimeoutError struct {
	Platform string
	Timeout  time.Duration
}

func (e *LoginTimeoutError) Error() string {
	return fmt.Sprintf("auth: interactive login for %s not completed within %s", e.Platform, e.Timeout)
}

// Options configures a Flow.
type Options struct {
	// LoginTimeout bounds the interactive login wait; zero means 60s
	LoginTimeout time.Duration

	// Session is the base session configuration. The flow overrides the
	// Headless flag per step: login is always visible, validation always
	// headless.
	Session browser.SessionOptions
}

// Flow drives the credential state machine for one platform at a time.
type Flow struct {
	launcher browser.Launcher
	store    *credential.Store
	logger   *logging.Logger
	opts     Options
}

// NewFlow creates an auth flow.
func NewFlow(launcher browser.Launcher, store *credential.Store, logger *logging.Logger, opts Options) *Flow {
	return &Flow{launcher: launcher, store: store, logger: logger, opts: opts}
}

func (f *Flow) loginTimeout() time.Duration {
	if f.opts.LoginTimeout <= 0 {
		return 60 * time.Second
	}
	return f.opts.LoginTimeout
}

// Login runs the interactive login: it opens a visible session on the
// platform's login entry point, waits for the user to finish (detected by
// the URL reaching the authenticated landing pattern), then exports the
// session state and saves it as the platform's credential.
func (f *Flow) Login(ctx context.Context, adapter platform.Adapter) error {
	opts := f.opts.Session
	opts.Platform = adapter.Key()
	opts.Headless = false

	h, err := f.launcher.Acquire(ctx, opts)
	if err != nil {
		return fmt.Errorf("auth: acquire login session: %w", err)
	}
	defer h.Release()

	if err := h.ImportState(nil); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := h.Goto(ctx, adapter.LoginEntryURL()); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	f.logger.Infof("login page opened for %s, complete the login in the browser window", adapter.Key())

	err = h.WaitURLMatch(ctx, adapter.AuthenticatedLandingURL(), f.loginTimeout())
	switch {
	case err == nil:
	case errors.Is(err, browser.ErrPageClosed):
		return fmt.Errorf("auth: login window closed before completion: %w", err)
	case errors.Is(err, browser.ErrInvalidPattern):
		return fmt.Errorf("auth: landing pattern for %s: %w", adapter.Key(), err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return &LoginTimeoutError{Platform: adapter.Key(), Timeout: f.loginTimeout()}
	}

	state, err := h.ExportState()
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := f.store.Save(adapter.Key(), state); err != nil {
		return err
	}

	f.logger.Infof("login for %s succeeded, credential saved to %s", adapter.Key(), f.store.Path(adapter.Key()))
	return nil
}

// Verify checks the stored credential against the live site without any
// user interaction. It returns nil when the credential is valid,
// ErrCredentialMissing when none is stored, and ErrCredentialInvalid when
// the platform still shows a login prompt. Repeated calls are read-only:
// stored state is never mutated here.
func (f *Flow) Verify(ctx context.Context, adapter platform.Adapter) error {
	state, err := f.store.Load(adapter.Key())
	if errors.Is(err, credential.ErrNotFound) {
		f.logger.Warnf("no credential stored for %s", adapter.Key())
		return ErrCredentialMissing
	}
	if err != nil {
		return err
	}

	opts := f.opts.Session
	opts.Platform = adapter.Key()
	opts.Headless = true

	h, err := f.launcher.Acquire(ctx, opts)
	if err != nil {
		return fmt.Errorf("auth: acquire validation session: %w", err)
	}
	defer h.Release()

	if err := h.ImportState(state); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := h.Goto(ctx, adapter.PublishSurfaceURL()); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Visibility of any requires-login element implies the credential is
	// dead; resolution failing by absence implies it still works.
	err = h.Detect(ctx, adapter.RequiresLogin())
	if err == nil {
		f.logger.Warnf("credential for %s is no longer valid", adapter.Key())
		return ErrCredentialInvalid
	}

	var notFound *browser.ElementNotFoundError
	if errors.As(err, &notFound) {
		f.logger.Infof("credential for %s is valid", adapter.Key())
		return nil
	}
	return fmt.Errorf("auth: validation for %s failed: %w", adapter.Key(), err)
}

// Ensure yields a valid stored credential or an error. With renew set, a
// missing or invalid credential falls back to interactive login; without
// it, the flow terminates unauthenticated and never opens a visible
// browser.
func (f *Flow) Ensure(ctx context.Context, adapter platform.Adapter, renew bool) error {
	err := f.Verify(ctx, adapter)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCredentialMissing), errors.Is(err, ErrCredentialInvalid):
		if !renew {
			return err
		}
		f.logger.Infof("renewing credential for %s via interactive login", adapter.Key())
		return f.Login(ctx, adapter)
	default:
		return err
	}
}
