// Package matcher resolves ambiguous cross-platform group pairs with an
// external text oracle. Concurrent callers are coalesced into debounced
// batches so one oracle request answers many pairs.
package matcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/logger"
)

// Oracle is a text-completion capability.
type Oracle interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// State of the pending queue.
type State int

const (
	// StateIdle: nothing queued, no timer, no batch in flight
	StateIdle State = iota
	// StateCollecting: pairs are queued and the debounce timer is armed
	StateCollecting
	// StateFlushing: a batch is with the oracle and the queue is empty
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateFlushing:
		return "flushing"
	default:
		return "idle"
	}
}

const (
	DefaultWindow    = 30 * time.Millisecond
	DefaultMaxBatch  = 50
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
)

// Options configure a Matcher. Zero values select the defaults.
type Options struct {
	// Window is the debounce interval
	Window time.Duration
	// MaxBatch flushes immediately once this many distinct pairs are queued
	MaxBatch int
	// MaxTokens is passed to the oracle per batch
	MaxTokens int
	// Timeout bounds each oracle call
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

type pending struct {
	a, b    extract.StructuralGroup
	waiters []chan bool
}

// Matcher batches similarity questions. Create with New, release with Close.
type Matcher struct {
	oracle Oracle
	opts   Options
	logger *zap.SugaredLogger

	mu       sync.Mutex
	state    State
	queue    []*pending
	index    map[string]int
	timer    *time.Timer
	gen      uint64
	inflight int
	closed   bool
	wg       sync.WaitGroup
}

// New builds a matcher around oracle. A nil oracle is allowed: every
// ambiguous pair then resolves by name equality.
func New(oracle Oracle, opts Options) *Matcher {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Matcher{
		oracle: oracle,
		opts:   opts,
		logger: logger.OrNop(opts.Logger),
		index:  map[string]int{},
	}
}

// State reports the queue state.
func (m *Matcher) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AreSimilar reports whether a and b are the same widget. Pairs with
// different text/button composition are never similar; pairs with equal
// name and signature always are. Neither case reaches the oracle. Other
// pairs wait for their batch; when ctx ends first, or the oracle fails, the
// verdict is case-insensitive name equality. AreSimilar never fails.
func (m *Matcher) AreSimilar(ctx context.Context, a, b extract.StructuralGroup) bool {
	if !a.Recipe.SameComposition(b.Recipe) {
		return false
	}
	if a.Name == b.Name && a.Signature == b.Signature {
		return true
	}
	if m.oracle == nil {
		return fallbackVerdict(a, b)
	}

	ch, ok := m.enqueue(a, b)
	if !ok {
		return fallbackVerdict(a, b)
	}
	select {
	case v := <-ch:
		return v
	case <-ctx.Done():
		return fallbackVerdict(a, b)
	}
}

func (m *Matcher) enqueue(a, b extract.StructuralGroup) (chan bool, bool) {
	ch := make(chan bool, 1)
	key := a.Name + "__" + b.Name

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false
	}

	if i, ok := m.index[key]; ok {
		m.queue[i].waiters = append(m.queue[i].waiters, ch)
		return ch, true
	}
	m.index[key] = len(m.queue)
	m.queue = append(m.queue, &pending{a: a, b: b, waiters: []chan bool{ch}})

	if len(m.queue) >= m.opts.MaxBatch {
		batch := m.takeLocked()
		m.wg.Add(1)
		go m.flush(batch)
		return ch, true
	}

	if m.timer == nil {
		gen := m.gen
		m.timer = time.AfterFunc(m.opts.Window, func() { m.onTimer(gen) })
		m.state = StateCollecting
	}
	return ch, true
}

// takeLocked swaps the queue out and disarms the timer. m.mu must be held.
func (m *Matcher) takeLocked() []*pending {
	batch := m.queue
	m.queue = nil
	m.index = map[string]int{}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	// A timer that already fired sees a stale generation and does nothing
	m.gen++
	if len(batch) > 0 {
		m.inflight++
		m.state = StateFlushing
	}
	return batch
}

func (m *Matcher) onTimer(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	batch := m.takeLocked()
	if len(batch) == 0 {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	m.flush(batch)
}

func (m *Matcher) flush(batch []*pending) {
	defer m.wg.Done()

	verdicts := m.ask(batch)
	for i, p := range batch {
		for _, w := range p.waiters {
			w <- verdicts[i]
		}
	}

	m.mu.Lock()
	m.inflight--
	if m.inflight == 0 && len(m.queue) == 0 {
		m.state = StateIdle
	}
	m.mu.Unlock()
}

// ask makes one oracle call for the batch and returns a verdict per pair.
func (m *Matcher) ask(batch []*pending) []bool {
	out := make([]bool, len(batch))
	pairs := make([]Pair, len(batch))
	for i, p := range batch {
		pairs[i] = Pair{A: p.a, B: p.b}
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := m.oracle.Complete(ctx, BuildPrompt(pairs), m.opts.MaxTokens)
	if err != nil {
		m.logger.Warnw("Oracle call failed, falling back to name equality",
			logger.FieldBatchSize, len(batch),
			logger.FieldError, err.Error(),
		)
		for i, p := range batch {
			out[i] = fallbackVerdict(p.a, p.b)
		}
		return out
	}

	verdicts := ParseVerdicts(resp, len(batch))
	for i := range batch {
		out[i] = verdicts[i]
	}
	m.logger.Debugw("Oracle batch resolved",
		logger.FieldBatchSize, len(batch),
		"parsed", len(verdicts),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return out
}

// Close flushes anything still queued, waits for in-flight batches and
// turns later calls into deterministic verdicts. Safe to call twice.
func (m *Matcher) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.wg.Wait()
		return
	}
	m.closed = true
	batch := m.takeLocked()
	if len(batch) > 0 {
		m.wg.Add(1)
	}
	m.mu.Unlock()

	if len(batch) > 0 {
		m.flush(batch)
	}
	m.wg.Wait()
}

func fallbackVerdict(a, b extract.StructuralGroup) bool {
	return strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name))
}
