package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teranos/pixelcheck/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	bursts [][]string
}

func (r *recorder) onChange(ctx context.Context, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bursts = append(r.bursts, changed)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.bursts...)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	android := filepath.Join(dir, "android.json")
	ios := filepath.Join(dir, "ios.json")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{android, ios, other} {
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
	}

	rec := &recorder{}
	w, err := New([]string{android, ios}, rec.onChange, Options{Debounce: 100 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to start reading events
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(android, []byte(`{"a":1}`), 0644))
	require.NoError(t, os.WriteFile(ios, []byte(`{"b":1}`), 0644))
	require.NoError(t, os.WriteFile(android, []byte(`{"a":2}`), 0644))
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0644))

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	absAndroid, _ := filepath.Abs(android)
	absIOS, _ := filepath.Abs(ios)
	assert.Equal(t, []string{absAndroid, absIOS}, rec.snapshot()[0])

	cancel()
	require.NoError(t, <-done)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, func(context.Context, []string) {}, Options{})
	assert.True(t, errors.IsInvalidRequest(err))

	_, err = New([]string{filepath.Join(t.TempDir(), "missing-dir", "x.json")}, func(context.Context, []string) {}, Options{})
	assert.Error(t, err)
}
