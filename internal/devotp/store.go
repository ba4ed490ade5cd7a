// Package devotp keeps plain OTP codes in memory by recipient, used only when dev OTP mode is enabled (GET /dev/otp).
package devotp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds plain OTP by recipient for dev-only retrieval. Not used in production.
type Store interface {
	// Put stores otp for recipient until expiresAt, replacing any previous code.
	Put(ctx context.Context, recipient, otp string, expiresAt time.Time)
	// Get returns the otp for recipient if present and not expired. Returns ok false if missing or expired.
	Get(ctx context.Context, recipient string) (otp string, ok bool)
}

type entry struct {
	otp       string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores otp for recipient until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, recipient, otp string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[recipient] = entry{otp: otp, expiresAt: expiresAt}
}

// Get returns the otp for recipient if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, recipient string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[recipient]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, recipient)
		s.mu.Unlock()
		return "", false
	}
	return e.otp, true
}

// Notifier stands in for the email notifier in dev OTP mode: codes go to the Store instead of a mailbox.
type Notifier struct {
	store Store
	ttl   time.Duration
	nowF  func() time.Time
}

// NewNotifier returns a Notifier that keeps each code for ttl.
func NewNotifier(store Store, ttl time.Duration) *Notifier {
	return &Notifier{store: store, ttl: ttl, nowF: func() time.Time { return time.Now().UTC() }}
}

// SendOTP stores code for to and returns a synthetic message id.
func (n *Notifier) SendOTP(ctx context.Context, code, to string) (string, error) {
	n.store.Put(ctx, to, code, n.nowF().Add(n.ttl))
	return "dev-" + uuid.New().String(), nil
}
