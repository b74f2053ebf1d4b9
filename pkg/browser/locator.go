package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// WaitState is the element condition a locator set waits for.
type WaitState string

const (
	StateVisible  WaitState = "visible"
	StateAttached WaitState = "attached"
	StateHidden   WaitState = "hidden"
	StateDetached WaitState = "detached"
)

// DefaultResolveTimeout is the shared budget used when a LocatorSet does not
// carry its own.
const DefaultResolveTimeout = 10 * time.Second

// LocatorSet is an ordered list of semantically equivalent selectors.
// Earlier entries are preferred; later ones are fallbacks for UI drift.
// The timeout is a shared budget across all candidates, not per candidate.
type LocatorSet struct {
	// Name identifies the set in errors and logs ("title field", "submit button")
	Name string

	// Selectors are the candidate CSS/text selectors, in preference order
	Selectors []string

	// State is the condition to wait for; empty means visible
	State WaitState

	// Timeout is the shared resolution budget; zero means DefaultResolveTimeout
	Timeout time.Duration
}

// Locators builds a visible-state LocatorSet, the common case.
func Locators(name string, selectors ...string) LocatorSet {
	return LocatorSet{Name: name, Selectors: selectors, State: StateVisible}
}

func (s LocatorSet) state() WaitState {
	if s.State == "" {
		return StateVisible
	}
	return s.State
}

func (s LocatorSet) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultResolveTimeout
	}
	return s.Timeout
}

// ElementNotFoundError reports that no candidate of a locator set satisfied
// the wait state within the shared budget.
type ElementNotFoundError struct {
	Set     LocatorSet
	Elapsed time.Duration
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("browser: no candidate of %q reached state %q after %s (%d candidates)",
		e.Set.Name, e.Set.state(), e.Elapsed.Round(time.Millisecond), len(e.Set.Selectors))
}

// probeFunc reports whether a selector currently satisfies a wait state.
// Probe errors mean "unknown", not failure: the candidate is simply skipped
// this round.
type probeFunc func(selector string, state WaitState) (bool, error)

// Resolver finds the first matching candidate of a LocatorSet. It is the
// single point of UI-drift tolerance: every click, fill, and upload in the
// system goes through it.
type Resolver struct {
	// Interval is the polling interval between candidate sweeps
	Interval time.Duration
}

// NewResolver creates a resolver with the default polling interval.
func NewResolver() *Resolver {
	return &Resolver{Interval: 250 * time.Millisecond}
}

// Resolve returns a locator for the first candidate that satisfies the
// set's wait state within the shared budget, or ElementNotFoundError. No
// navigation or interaction happens here, only queries.
func (r *Resolver) Resolve(ctx context.Context, page playwright.Page, set LocatorSet) (playwright.Locator, error) {
	selector, err := r.resolve(ctx, set, pageProbe(page))
	if err != nil {
		return nil, err
	}
	return page.Locator(selector).First(), nil
}

// resolve sweeps the candidates in order until one satisfies the wait state.
// The first success short-circuits the sweep; the deadline is shared by all
// candidates.
func (r *Resolver) resolve(ctx context.Context, set LocatorSet, probe probeFunc) (string, error) {
	if len(set.Selectors) == 0 {
		return "", fmt.Errorf("browser: locator set %q has no candidates", set.Name)
	}

	interval := r.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	start := time.Now()
	deadline := start.Add(set.timeout())

	for {
		for _, selector := range set.Selectors {
			ok, err := probe(selector, set.state())
			if err != nil {
				continue
			}
			if ok {
				return selector, nil
			}
		}

		if time.Now().After(deadline) {
			return "", &ElementNotFoundError{Set: set, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

// race resolves the locator sets concurrently, one wait task per set. The
// first set to resolve wins and cancels the losers; the ceiling bounds the
// whole race, not each set.
func (r *Resolver) race(ctx context.Context, sets []LocatorSet, ceiling time.Duration, probe probeFunc) (int, error) {
	if len(sets) == 0 {
		return -1, fmt.Errorf("browser: race needs at least one locator set")
	}

	raceCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	won := make(chan int, len(sets))
	var wg sync.WaitGroup
	for i, set := range sets {
		bounded := set
		bounded.Timeout = ceiling
		wg.Add(1)
		go func(idx int, set LocatorSet) {
			defer wg.Done()
			if _, err := r.resolve(raceCtx, set, probe); err == nil {
				won <- idx
			}
		}(i, bounded)
	}

	go func() {
		wg.Wait()
		close(won)
	}()

	select {
	case idx, ok := <-won:
		if !ok {
			if err := ctx.Err(); err != nil {
				return -1, err
			}
			return -1, fmt.Errorf("browser: no signal observed within %s", ceiling)
		}
		cancel() // losers stop polling
		return idx, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// pageProbe adapts a Playwright page into a probeFunc. Existence is a count
// query; visibility is checked on the first match only.
func pageProbe(page playwright.Page) probeFunc {
	return func(selector string, state WaitState) (bool, error) {
		loc := page.Locator(selector)
		count, err := loc.Count()
		if err != nil {
			return false, err
		}

		switch state {
		case StateDetached:
			return count == 0, nil
		case StateAttached:
			return count > 0, nil
		case StateHidden:
			if count == 0 {
				return true, nil
			}
			visible, err := loc.First().IsVisible()
			if err != nil {
				return false, err
			}
			return !visible, nil
		default: // visible
			if count == 0 {
				return false, nil
			}
			return loc.First().IsVisible()
		}
	}
}
