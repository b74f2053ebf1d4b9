package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/BadKid90s/Spreado/pkg/credential"
)

// ErrPageClosed is returned by waits when the user closes the browser window
// before the wait condition is met.
var ErrPageClosed = errors.New("browser: page was closed")

// ErrInvalidPattern marks a URL glob that does not compile. This is a
// configuration defect, not a wait that ran out of time.
var ErrInvalidPattern = errors.New("browser: invalid url pattern")

// urlPollInterval is how often URL waits re-check the current address.
const urlPollInterval = 250 * time.Millisecond

// Handle is one live browser session bound to at most one credential. A
// handle never outlives the run that acquired it: callers defer Release and
// never store the handle across calls.
type Handle interface {
	// ImportState creates the session's context and page, restoring the
	// given credential state. A nil state starts a clean session.
	ImportState(state *credential.State) error

	// ExportState serializes the session's current cookies and storage.
	ExportState() (*credential.State, error)

	// Goto navigates the session's page.
	Goto(ctx context.Context, url string) error

	// URL returns the current page address.
	URL() string

	// IsClosed reports whether the page has been closed externally.
	IsClosed() bool

	// Detect resolves a locator set without acting on it.
	Detect(ctx context.Context, set LocatorSet) error

	// Click resolves a locator set and clicks the first match.
	Click(ctx context.Context, set LocatorSet) error

	// Fill resolves a locator set and fills the first match.
	Fill(ctx context.Context, set LocatorSet, value string) error

	// Upload resolves a locator set and attaches a file to the first match.
	Upload(ctx context.Context, set LocatorSet, path string) error

	// TypeText types into the focused element with per-key delay.
	TypeText(ctx context.Context, text string) error

	// Press sends a single key to the focused element.
	Press(ctx context.Context, key string) error

	// WaitAny races the given locator sets and returns the index of the
	// first to resolve within the ceiling.
	WaitAny(ctx context.Context, sets []LocatorSet, ceiling time.Duration) (int, error)

	// WaitURLMatch waits for the page URL to match a glob pattern.
	WaitURLMatch(ctx context.Context, pattern string, timeout time.Duration) error

	// Headless reports the session's execution mode.
	Headless() bool

	// Release closes the page, context, and browser. Idempotent; must run
	// on every exit path of the enclosing run.
	Release()
}

// Session is the Playwright-backed Handle.
type Session struct {
	browser     playwright.Browser
	context     playwright.BrowserContext
	page        playwright.Page
	opts        SessionOptions
	resolver    *Resolver
	releaseOnce sync.Once
}

var _ Handle = (*Session)(nil)

func newSession(b playwright.Browser, opts SessionOptions) *Session {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultResolveTimeout
	}
	return &Session{
		browser:  b,
		opts:     opts,
		resolver: NewResolver(),
	}
}

// ImportState builds the browser context and page. The stealth init script
// is installed before any page script can observe the session.
func (s *Session) ImportState(state *credential.State) error {
	contextOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if state != nil {
		contextOpts.StorageState = stateToPlaywright(state)
	}

	ctx, err := s.browser.NewContext(contextOpts)
	if err != nil {
		return fmt.Errorf("browser: failed to create context: %w", err)
	}

	if err := ctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		ctx.Close()
		return fmt.Errorf("browser: failed to add init script: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		return fmt.Errorf("browser: failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.ActionTimeout.Milliseconds()))

	s.context = ctx
	s.page = page
	return nil
}

// ExportState captures the context's cookies and per-origin storage.
func (s *Session) ExportState() (*credential.State, error) {
	if s.context == nil {
		return nil, fmt.Errorf("browser: session has no context")
	}

	ss, err := s.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("browser: failed to export storage state: %w", err)
	}
	return stateFromPlaywright(ss), nil
}

func (s *Session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.page == nil {
		return fmt.Errorf("browser: session has no page (ImportState not called)")
	}

	waitUntil := playwright.WaitUntilStateDomcontentloaded
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.opts.NavigationTimeout.Milliseconds())),
		WaitUntil: waitUntil,
	})
	if err != nil {
		return fmt.Errorf("browser: navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) URL() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

func (s *Session) IsClosed() bool {
	return s.page == nil || s.page.IsClosed()
}

func (s *Session) Detect(ctx context.Context, set LocatorSet) error {
	_, err := s.resolver.Resolve(ctx, s.page, s.withDefaultTimeout(set))
	return err
}

func (s *Session) Click(ctx context.Context, set LocatorSet) error {
	loc, err := s.resolver.Resolve(ctx, s.page, s.withDefaultTimeout(set))
	if err != nil {
		return err
	}
	if err := loc.Click(); err != nil {
		return fmt.Errorf("browser: click %q: %w", set.Name, err)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, set LocatorSet, value string) error {
	loc, err := s.resolver.Resolve(ctx, s.page, s.withDefaultTimeout(set))
	if err != nil {
		return err
	}
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("browser: fill %q: %w", set.Name, err)
	}
	return nil
}

func (s *Session) Upload(ctx context.Context, set LocatorSet, path string) error {
	attached := s.withDefaultTimeout(set)
	if attached.State == "" {
		// file inputs are frequently rendered invisible
		attached.State = StateAttached
	}
	loc, err := s.resolver.Resolve(ctx, s.page, attached)
	if err != nil {
		return err
	}
	if err := loc.SetInputFiles(path); err != nil {
		return fmt.Errorf("browser: attach file to %q: %w", set.Name, err)
	}
	return nil
}

func (s *Session) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{Delay: playwright.Float(50)}); err != nil {
		return fmt.Errorf("browser: type text: %w", err)
	}
	return nil
}

func (s *Session) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("browser: press %s: %w", key, err)
	}
	return nil
}

// WaitAny races the locator sets: one wait task per set, first completion
// wins and cancels the losers. Returns the winning index, or an error when
// no set resolves before the ceiling.
func (s *Session) WaitAny(ctx context.Context, sets []LocatorSet, ceiling time.Duration) (int, error) {
	return s.resolver.race(ctx, sets, ceiling, pageProbe(s.page))
}

// WaitURLMatch polls the page URL until it matches the glob pattern. It
// fails early when the page is closed, which during interactive login means
// the user gave up.
func (s *Session) WaitURLMatch(ctx context.Context, pattern string, timeout time.Duration) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if s.IsClosed() {
			return ErrPageClosed
		}
		if g.Match(s.page.URL()) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("browser: url %s did not match %q within %s", s.page.URL(), pattern, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(urlPollInterval):
		}
	}
}

func (s *Session) Headless() bool {
	return s.opts.Headless
}

// Release closes page, context, and browser, ignoring individual close
// errors so cleanup always runs to the end.
func (s *Session) Release() {
	s.releaseOnce.Do(func() {
		if s.page != nil && !s.page.IsClosed() {
			_ = s.page.Close()
		}
		if s.context != nil {
			_ = s.context.Close()
		}
		_ = s.browser.Close()
	})
}

// withDefaultTimeout fills in the session's action timeout for sets that do
// not carry their own budget.
func (s *Session) withDefaultTimeout(set LocatorSet) LocatorSet {
	if set.Timeout <= 0 {
		set.Timeout = s.opts.ActionTimeout
	}
	return set
}

// stateToPlaywright converts a persisted credential into the storage-state
// document Playwright accepts at context creation.
func stateToPlaywright(state *credential.State) *playwright.OptionalStorageState {
	out := &playwright.OptionalStorageState{}

	for _, c := range state.Cookies {
		cookie := playwright.OptionalCookie{
			Name:  c.Name,
			Value: c.Value,
		}
		if c.Domain != "" {
			cookie.Domain = playwright.String(c.Domain)
		}
		if c.Path != "" {
			cookie.Path = playwright.String(c.Path)
		}
		if c.Expires != 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		if c.HTTPOnly {
			cookie.HttpOnly = playwright.Bool(true)
		}
		if c.Secure {
			cookie.Secure = playwright.Bool(true)
		}
		if attr := sameSiteAttribute(c.SameSite); attr != nil {
			cookie.SameSite = attr
		}
		out.Cookies = append(out.Cookies, cookie)
	}

	for _, o := range state.Origins {
		origin := playwright.Origin{Origin: o.Origin}
		for _, e := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, playwright.NameValue{Name: e.Name, Value: e.Value})
		}
		out.Origins = append(out.Origins, origin)
	}

	return out
}

// stateFromPlaywright converts an exported storage state back into the
// persisted credential shape.
func stateFromPlaywright(ss *playwright.StorageState) *credential.State {
	out := &credential.State{}

	for _, c := range ss.Cookies {
		cookie := credential.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		out.Cookies = append(out.Cookies, cookie)
	}

	for _, o := range ss.Origins {
		origin := credential.Origin{Origin: o.Origin}
		for _, e := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, credential.StorageEntry{Name: e.Name, Value: e.Value})
		}
		out.Origins = append(out.Origins, origin)
	}

	return out
}

func sameSiteAttribute(v string) *playwright.SameSiteAttribute {
	switch v {
	case "Strict":
		return playwright.SameSiteAttributeStrict
	case "Lax":
		return playwright.SameSiteAttributeLax
	case "None":
		return playwright.SameSiteAttributeNone
	default:
		return nil
	}
}
