package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionOptions configures one browser session.
type SessionOptions struct {
	// Platform key, used for logging only
	Platform string

	// Headless controls whether the browser shows a window. Interactive
	// login requires a visible window; everything else runs headless.
	Headless bool

	// NavigationTimeout bounds page navigations
	NavigationTimeout time.Duration

	// ActionTimeout is the default shared resolution budget per locator set
	ActionTimeout time.Duration
}

// Launcher acquires browser sessions. *Runtime is the Playwright-backed
// implementation; tests substitute fakes.
type Launcher interface {
	Acquire(ctx context.Context, opts SessionOptions) (Handle, error)
}

// Runtime owns the Playwright driver process. Start it once, acquire one
// session per auth or publish run, stop it on shutdown.
type Runtime struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	started bool
}

// NewRuntime creates an unstarted runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Start installs (if needed) and starts the Playwright driver.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	r.pw = pw
	r.started = true
	return nil
}

// Acquire launches a Chromium instance and wraps it in a Session. Every
// session owns its whole browser process, so concurrent jobs share nothing.
// The caller must Release the session on every exit path.
func (r *Runtime) Acquire(ctx context.Context, opts SessionOptions) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil, fmt.Errorf("browser runtime not started")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args:     launchArgs(),
		SlowMo:   playwright.Float(launchJitterMs()),
	}
	if path := chromePath(); path != "" {
		launchOpts.ExecutablePath = &path
	}

	b, err := r.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return newSession(b, opts), nil
}

// Stop shuts down the Playwright driver. Sessions must be released first.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil
	}
	r.started = false

	if err := r.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// chromePath looks for a locally installed Chrome. Using the real browser
// instead of the bundled Chromium reduces automation fingerprints; when none
// is found, the Playwright default is used.
func chromePath() string {
	var candidates []string

	switch goruntime.GOOS {
	case "windows":
		candidates = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			os.ExpandEnv(`${LOCALAPPDATA}\Google\Chrome\Application\chrome.exe`),
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			home + "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "linux":
		candidates = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/opt/google/chrome/chrome",
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
