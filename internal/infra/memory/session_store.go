package memory

import (
	"context"
	"sync"
	"time"
)

// SessionStore is an in-memory implementation of app.SessionStore.
// Revocations are dropped lazily once the session would have expired.
type SessionStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(time.Now)
}

// NewSessionStoreWithClock allows deterministic expiry in tests.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{
		now:     now,
		revoked: make(map[string]time.Time),
	}
}

func (s *SessionStore) Revoke(_ context.Context, sessionID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = until
	return nil
}

func (s *SessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A Revoke may have landed since the read lock was released.
		current, ok := s.revoked[sessionID]
		if ok && current.After(s.now()) {
			return true, nil
		}
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}

// AttemptLimiter is an in-memory fixed-window implementation of
// app.AttemptLimiter.
type AttemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*attemptBucket
}

type attemptBucket struct {
	count   int
	resetAt time.Time
}

func NewAttemptLimiter(max int, window time.Duration) *AttemptLimiter {
	return NewAttemptLimiterWithClock(max, window, time.Now)
}

// NewAttemptLimiterWithClock allows deterministic windows in tests.
func NewAttemptLimiterWithClock(max int, window time.Duration, now func() time.Time) *AttemptLimiter {
	return &AttemptLimiter{
		max:     max,
		window:  window,
		now:     now,
		buckets: make(map[string]*attemptBucket),
	}
}

func (l *AttemptLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !b.resetAt.After(now) {
		b = &attemptBucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max, nil
}

func (l *AttemptLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}
