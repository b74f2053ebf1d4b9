package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProbe answers probe calls from a fixed table and records the order
// in which candidates were evaluated.
type scriptedProbe struct {
	answers map[string]bool
	errs    map[string]error
	calls   []string
}

func (p *scriptedProbe) probe(selector string, _ WaitState) (bool, error) {
	p.calls = append(p.calls, selector)
	if err, ok := p.errs[selector]; ok {
		return false, err
	}
	return p.answers[selector], nil
}

func fastResolver() *Resolver {
	return &Resolver{Interval: time.Millisecond}
}

func TestResolvePrefersEarlierCandidates(t *testing.T) {
	probe := &scriptedProbe{answers: map[string]bool{
		".primary":  true,
		".fallback": true,
	}}
	set := LocatorSet{Name: "submit button", Selectors: []string{".primary", ".fallback"}, Timeout: time.Second}

	selector, err := fastResolver().resolve(context.Background(), set, probe.probe)
	require.NoError(t, err)
	assert.Equal(t, ".primary", selector)
	// short-circuits: the fallback is never evaluated
	assert.Equal(t, []string{".primary"}, probe.calls)
}

func TestResolveFallsBackOnAbsence(t *testing.T) {
	probe := &scriptedProbe{answers: map[string]bool{
		".fallback": true,
	}}
	set := LocatorSet{Name: "title field", Selectors: []string{".gone", ".fallback"}, Timeout: time.Second}

	selector, err := fastResolver().resolve(context.Background(), set, probe.probe)
	require.NoError(t, err)
	assert.Equal(t, ".fallback", selector)
}

func TestResolveSkipsErroringCandidates(t *testing.T) {
	probe := &scriptedProbe{
		answers: map[string]bool{".ok": true},
		errs:    map[string]error{".broken": errors.New("bad selector syntax")},
	}
	set := LocatorSet{Name: "field", Selectors: []string{".broken", ".ok"}, Timeout: time.Second}

	selector, err := fastResolver().resolve(context.Background(), set, probe.probe)
	require.NoError(t, err)
	assert.Equal(t, ".ok", selector)
}

func TestResolveSharedTimeoutBudget(t *testing.T) {
	probe := &scriptedProbe{answers: map[string]bool{}}
	set := LocatorSet{Name: "login prompt", Selectors: []string{".a", ".b", ".c"}, Timeout: 30 * time.Millisecond}

	start := time.Now()
	_, err := fastResolver().resolve(context.Background(), set, probe.probe)
	elapsed := time.Since(start)

	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "login prompt", notFound.Set.Name)
	assert.GreaterOrEqual(t, notFound.Elapsed, 30*time.Millisecond)
	// single shared budget, not one per candidate
	assert.Less(t, elapsed, 3*30*time.Millisecond)
}

func TestResolveLateAppearance(t *testing.T) {
	var sweeps int
	probe := func(selector string, _ WaitState) (bool, error) {
		if selector == ".slow" {
			sweeps++
			return sweeps >= 3, nil
		}
		return false, nil
	}
	set := LocatorSet{Name: "processed signal", Selectors: []string{".never", ".slow"}, Timeout: time.Second}

	selector, err := fastResolver().resolve(context.Background(), set, probe)
	require.NoError(t, err)
	assert.Equal(t, ".slow", selector)
}

func TestResolveRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	probe := func(string, WaitState) (bool, error) {
		cancel()
		return false, nil
	}
	set := LocatorSet{Name: "field", Selectors: []string{".x"}, Timeout: time.Minute}

	_, err := fastResolver().resolve(ctx, set, probe)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveEmptySet(t *testing.T) {
	set := LocatorSet{Name: "empty"}
	_, err := fastResolver().resolve(context.Background(), set, func(string, WaitState) (bool, error) {
		t.Fatal("probe must not be called for an empty set")
		return false, nil
	})
	assert.Error(t, err)
}

func TestLocatorSetDefaults(t *testing.T) {
	set := Locators("cover button", "text=选择封面")
	assert.Equal(t, StateVisible, set.state())
	assert.Equal(t, DefaultResolveTimeout, set.timeout())
	assert.Equal(t, "cover button", set.Name)
}

func TestElementNotFoundErrorMessage(t *testing.T) {
	err := &ElementNotFoundError{
		Set:     LocatorSet{Name: "tag field", Selectors: []string{".a", ".b"}},
		Elapsed: 1500 * time.Millisecond,
	}
	msg := err.Error()
	assert.Contains(t, msg, "tag field")
	assert.Contains(t, msg, "visible")
	assert.Contains(t, msg, "2 candidates")
}

// atomicProbe is safe for the concurrent sweeps race() runs.
type atomicProbe struct {
	mu      sync.Mutex
	answers map[string]bool
	calls   map[string]int
}

func (p *atomicProbe) probe(selector string, _ WaitState) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[selector]++
	return p.answers[selector], nil
}

func (p *atomicProbe) count(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[selector]
}

func TestRaceReturnsWinnerIndex(t *testing.T) {
	probe := &atomicProbe{answers: map[string]bool{".ready": true}}
	sets := []LocatorSet{
		Locators("progress bar gone", ".progress"),
		Locators("success text", ".success"),
		Locators("edit control", ".ready"),
	}

	idx, err := fastResolver().race(context.Background(), sets, time.Second, probe.probe)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestRaceCancelsLosersAfterWin(t *testing.T) {
	probe := &atomicProbe{answers: map[string]bool{".winner": true}}
	sets := []LocatorSet{
		Locators("never appears", ".loser"),
		Locators("appears at once", ".winner"),
	}

	idx, err := fastResolver().race(context.Background(), sets, time.Second, probe.probe)
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	// the loser's wait task stops polling once the winner lands; at most
	// one sweep can still be in flight
	after := probe.count(".loser")
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, probe.count(".loser"), after+1)
}

func TestRaceLateSignalStillWins(t *testing.T) {
	var sweeps int32
	probe := func(selector string, _ WaitState) (bool, error) {
		if selector != ".late" {
			return false, nil
		}
		return atomic.AddInt32(&sweeps, 1) >= 3, nil
	}
	sets := []LocatorSet{
		Locators("never appears", ".never"),
		Locators("late signal", ".late"),
	}

	idx, err := fastResolver().race(context.Background(), sets, time.Second, probe)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestRaceAllSignalsMissed(t *testing.T) {
	probe := &atomicProbe{answers: map[string]bool{}}
	sets := []LocatorSet{
		Locators("signal a", ".a"),
		Locators("signal b", ".b"),
	}

	idx, err := fastResolver().race(context.Background(), sets, 30*time.Millisecond, probe.probe)
	require.Error(t, err)
	assert.Equal(t, -1, idx)
	assert.Contains(t, err.Error(), "no signal observed")
}

func TestRaceRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := &atomicProbe{answers: map[string]bool{}}
	sets := []LocatorSet{Locators("signal", ".a")}

	_, err := fastResolver().race(ctx, sets, time.Second, probe.probe)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRaceEmptySets(t *testing.T) {
	probe := &atomicProbe{}
	_, err := fastResolver().race(context.Background(), nil, time.Second, probe.probe)
	assert.Error(t, err)
}
