// Package session keeps the latest analysis per user for later retrieval.
// Entries live in memory only and expire after a TTL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
)

// DefaultTTL should match am.DefaultSessionTTLMinutes
const DefaultTTL = time.Hour

// Session is one stored analysis
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Report    *analysis.Report `json:"report"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Store maps user ids to their latest session
type Store struct {
	mu     sync.RWMutex
	ttl    time.Duration
	byUser map[string]*Session
	byID   map[string]string // session id -> user id
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewStore creates a store. ttl <= 0 selects DefaultTTL.
func NewStore(ttl time.Duration, log *zap.SugaredLogger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:    ttl,
		byUser: make(map[string]*Session),
		byID:   make(map[string]string),
		now:    time.Now,
		logger: logger.OrNop(log),
	}
}

// Put replaces userID's session with report and returns the new session
func (s *Store) Put(userID string, report *analysis.Report) (*Session, error) {
	if userID == "" {
		return nil, errors.NewInvalidRequestError("session user id is required")
	}
	if report == nil {
		return nil, errors.NewInvalidRequestError("session report is required")
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Report:    report,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	if old, ok := s.byUser[userID]; ok {
		delete(s.byID, old.ID)
	}
	s.byUser[userID] = sess
	s.byID[sess.ID] = userID
	s.mu.Unlock()

	s.logger.Debugw("Session stored",
		logger.FieldSessionID, sess.ID,
		logger.FieldUserID, userID,
		logger.FieldRunID, report.RunID,
	)
	return sess, nil
}

// Get returns userID's live session
func (s *Store) Get(userID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.byUser[userID]
	s.mu.RUnlock()

	if !ok || !s.now().Before(sess.ExpiresAt) {
		return nil, errors.NewNotFoundError("no session for user %s", userID)
	}
	return sess, nil
}

// GetByID returns a live session by its id
func (s *Store) GetByID(id string) (*Session, error) {
	s.mu.RLock()
	userID, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError("no session %s", id)
	}
	sess, err := s.Get(userID)
	if err != nil || sess.ID != id {
		return nil, errors.NewNotFoundError("no session %s", id)
	}
	return sess, nil
}

// Delete removes userID's session; missing sessions are ignored
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byUser[userID]; ok {
		delete(s.byID, sess.ID)
		delete(s.byUser, userID)
	}
}

// Sweep drops expired sessions and returns how many were removed
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, sess := range s.byUser {
		if !now.Before(sess.ExpiresAt) {
			delete(s.byID, sess.ID)
			delete(s.byUser, userID)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debugw("Swept expired sessions", logger.FieldCount, removed)
	}
	return removed
}

// Len is the number of stored sessions, expired or not
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser)
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
