package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, nil)
	s.now = c.now
	return s, c
}

func TestPutGet(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	report := &analysis.Report{RunID: "run-1"}

	sess, err := s.Put("u1", report)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, sess.CreatedAt.Add(time.Minute), sess.ExpiresAt)

	got, err := s.Get("u1")
	require.NoError(t, err)
	assert.Same(t, report, got.Report)

	byID, err := s.GetByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", byID.UserID)
}

func TestPut_ReplacesLatest(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	first, err := s.Put("u1", &analysis.Report{RunID: "a"})
	require.NoError(t, err)
	_, err = s.Put("u1", &analysis.Report{RunID: "b"})
	require.NoError(t, err)

	got, err := s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Report.RunID)
	assert.Equal(t, 1, s.Len())

	_, err = s.GetByID(first.ID)
	assert.True(t, errors.IsNotFound(err), "replaced session id is gone")
}

func TestPut_Validation(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	_, err := s.Put("", &analysis.Report{})
	assert.True(t, errors.IsInvalidRequest(err))
	_, err = s.Put("u1", nil)
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestExpiry(t *testing.T) {
	s, c := newTestStore(time.Minute)
	_, err := s.Put("u1", &analysis.Report{})
	require.NoError(t, err)
	_, err = s.Put("u2", &analysis.Report{})
	require.NoError(t, err)

	c.advance(59 * time.Second)
	_, err = s.Get("u1")
	require.NoError(t, err)

	c.advance(time.Second)
	_, err = s.Get("u1")
	assert.True(t, errors.IsNotFound(err), "expired at exactly TTL")
	assert.Equal(t, 2, s.Len(), "Get does not evict")

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Sweep())
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	sess, err := s.Put("u1", &analysis.Report{})
	require.NoError(t, err)

	s.Delete("u1")
	s.Delete("nobody")

	_, err = s.Get("u1")
	assert.True(t, errors.IsNotFound(err))
	_, err = s.GetByID(sess.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, c := newTestStore(time.Minute)
	_, err := s.Put("u1", &analysis.Report{})
	require.NoError(t, err)
	c.advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(time.Minute, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := []string{"a", "b", "c"}[i%3]
			_, _ = s.Put(user, &analysis.Report{})
			_, _ = s.Get(user)
			s.Sweep()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 3)
}
