package matcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/extract"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func g(name string, textCount, buttonCount int) extract.StructuralGroup {
	r := extract.Recipe{TextCount: textCount, ButtonCount: buttonCount, TotalChildren: textCount + buttonCount}
	return extract.StructuralGroup{Name: name, Type: design.KindFrame, Recipe: r, Signature: r.Signature()}
}

type fakeOracle struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
	gate    chan struct{}
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply(prompt)
}

func (f *fakeOracle) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

var pairLine = regexp.MustCompile(`(?m)^(\d+)\. A: "([^"]*)".*\| B: "([^"]*)"`)

// similarWhenBSaysYes answers per pair, keyed by the index printed in the prompt.
func similarWhenBSaysYes(prompt string) (string, error) {
	var parts []string
	for _, m := range pairLine.FindAllStringSubmatch(prompt, -1) {
		parts = append(parts, fmt.Sprintf(`{"index": %s, "similar": %t}`, m[1], strings.Contains(m[3], "yes")))
	}
	return "```json\n[" + strings.Join(parts, ",") + "]\n```", nil
}

func TestAreSimilar_FastPaths(t *testing.T) {
	oracle := &fakeOracle{reply: func(string) (string, error) {
		t.Error("oracle must not be called on fast paths")
		return "", nil
	}}
	m := New(oracle, Options{})
	defer m.Close()
	ctx := context.Background()

	assert.False(t, m.AreSimilar(ctx, g("Search Bar", 1, 1), g("Search Bar", 1, 0)), "recipe differs")
	assert.False(t, m.AreSimilar(ctx, g("Login", 0, 1), g("Login", 1, 1)), "same name, recipe differs")
	assert.True(t, m.AreSimilar(ctx, g("Login", 0, 1), g("Login", 0, 1)), "name and signature equal")
	assert.Equal(t, 0, oracle.calls())
	assert.Equal(t, StateIdle, m.State())
}

func TestAreSimilar_BatchCoalescing(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes}
	m := New(oracle, Options{Window: 100 * time.Millisecond})
	defer m.Close()

	const n = 6
	results := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := fmt.Sprintf("B%d-no", i)
			if i%2 == 0 {
				b = fmt.Sprintf("B%d-yes", i)
			}
			results[i] = m.AreSimilar(context.Background(), g(fmt.Sprintf("A%d", i), 1, 0), g(b, 1, 0))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, oracle.calls(), "all pairs in one window share one request")
	assert.Len(t, pairLine.FindAllString(oracle.prompts[0], -1), n)
	for i, got := range results {
		assert.Equal(t, i%2 == 0, got, "pair %d", i)
	}
	assert.Equal(t, StateIdle, m.State())
}

func TestAreSimilar_DuplicatePairsShareAnEntry(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes}
	m := New(oracle, Options{Window: 50 * time.Millisecond})
	defer m.Close()

	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.AreSimilar(context.Background(), g("Search Bar", 1, 0), g("Find yes", 1, 0))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, oracle.calls())
	assert.Len(t, pairLine.FindAllString(oracle.prompts[0], -1), 1)
	assert.Equal(t, []bool{true, true, true}, results)
}

func TestAreSimilar_OracleFailureFallsBackToNames(t *testing.T) {
	oracle := &fakeOracle{reply: func(string) (string, error) {
		return "", errors.Wrap(errors.ErrOracleUnavailable, "401 from provider")
	}}
	m := New(oracle, Options{Window: 100 * time.Millisecond})
	defer m.Close()

	var wg sync.WaitGroup
	var same, different bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		same = m.AreSimilar(context.Background(), g("Search", 1, 0), g("search ", 1, 0))
	}()
	go func() {
		defer wg.Done()
		different = m.AreSimilar(context.Background(), g("Search", 1, 0), g("Find", 1, 0))
	}()
	wg.Wait()

	assert.True(t, same)
	assert.False(t, different)
	assert.Equal(t, 1, oracle.calls())
}

func TestAreSimilar_UnparsableVerdictIsFalse(t *testing.T) {
	oracle := &fakeOracle{reply: func(string) (string, error) {
		return "I think they are probably the same.", nil
	}}
	m := New(oracle, Options{Window: 5 * time.Millisecond})
	defer m.Close()

	assert.False(t, m.AreSimilar(context.Background(), g("Search", 1, 0), g("search", 1, 0)))
}

func TestAreSimilar_MaxBatchFlushesEarly(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes}
	m := New(oracle, Options{Window: time.Hour, MaxBatch: 2})
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.AreSimilar(context.Background(), g(fmt.Sprintf("A%d", i), 0, 1), g("yes", 0, 1))
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("full batch did not flush before the window")
	}
	assert.Equal(t, 1, oracle.calls())
}

func TestAreSimilar_States(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes, gate: make(chan struct{})}
	m := New(oracle, Options{Window: 20 * time.Millisecond})
	defer m.Close()

	assert.Equal(t, StateIdle, m.State())

	first := make(chan bool, 1)
	go func() { first <- m.AreSimilar(context.Background(), g("A", 1, 0), g("yes", 1, 0)) }()

	require.Eventually(t, func() bool { return oracle.calls() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateFlushing, m.State())

	// A pair arriving mid-flight arms a fresh timer for the next batch
	second := make(chan bool, 1)
	go func() { second <- m.AreSimilar(context.Background(), g("C", 1, 0), g("no", 1, 0)) }()
	require.Eventually(t, func() bool { return m.State() == StateCollecting || oracle.calls() == 2 }, 2*time.Second, time.Millisecond)

	close(oracle.gate)
	assert.True(t, <-first)
	assert.False(t, <-second)
	assert.Equal(t, 2, oracle.calls())
	require.Eventually(t, func() bool { return m.State() == StateIdle }, 2*time.Second, time.Millisecond)
}

func TestAreSimilar_CallerContextCancelled(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes, gate: make(chan struct{})}
	m := New(oracle, Options{Window: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan bool, 1)
	go func() { res <- m.AreSimilar(ctx, g("Menu", 1, 0), g("menu yes", 1, 0)) }()

	require.Eventually(t, func() bool { return oracle.calls() == 1 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.False(t, <-res, "cancelled callers get the name-equality verdict")

	close(oracle.gate)
	m.Close()
}

func TestClose(t *testing.T) {
	oracle := &fakeOracle{reply: similarWhenBSaysYes}
	m := New(oracle, Options{Window: time.Hour})

	res := make(chan bool, 1)
	go func() { res <- m.AreSimilar(context.Background(), g("A", 1, 0), g("yes", 1, 0)) }()
	require.Eventually(t, func() bool { return m.State() == StateCollecting }, 2*time.Second, time.Millisecond)

	m.Close()
	assert.True(t, <-res, "Close flushes queued pairs")
	assert.Equal(t, 1, oracle.calls())

	assert.True(t, m.AreSimilar(context.Background(), g("Tab", 1, 0), g("tab", 1, 0)))
	assert.Equal(t, 1, oracle.calls(), "closed matcher does not call the oracle")
	m.Close()
}

func TestNilOracle(t *testing.T) {
	m := New(nil, Options{})
	defer m.Close()
	assert.True(t, m.AreSimilar(context.Background(), g("Search", 1, 0), g("SEARCH", 1, 0)))
	assert.False(t, m.AreSimilar(context.Background(), g("Search", 1, 0), g("Find", 1, 0)))
}
