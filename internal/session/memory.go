package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is how long a login lasts before the user must re-authenticate.
const DefaultTTL = 24 * time.Hour

// sweepInterval is how often the janitor scans for expired sessions.
const sweepInterval = 10 * time.Minute

// MemoryStore is an in-process Store guarded by an RWMutex.
//
// Reads vastly outnumber writes (every authenticated request is a Get;
// writes happen only at login/logout), so an RWMutex beats a plain Mutex
// here. Expired entries are reaped lazily on Get and periodically by a
// janitor goroutine, so the map cannot grow without bound the way the
// original forever-lived session hash did.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration

	done chan struct{}
	once sync.Once

	// now is swappable in tests to exercise expiry without sleeping.
	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore and starts its janitor.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go s.sweep()
	return s
}

// Create generates an unguessable token and stores the session under it.
func (s *MemoryStore) Create(accessToken string, identity Identity) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, fmt.Errorf("session: generating token: %w", err)
	}

	now := s.now()
	sess := Session{
		Token:       token,
		AccessToken: accessToken,
		Identity:    identity,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get returns the session for token. Expired sessions are deleted and
// reported as absent.
func (s *MemoryStore) Get(token string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, false
	}
	if sess.Expired(s.now()) {
		s.Delete(token)
		return Session{}, false
	}
	return sess, true
}

// Delete removes a session. Deleting an unknown token is a no-op.
func (s *MemoryStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for token, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

// newToken returns 32 bytes of crypto/rand entropy, hex-encoded.
// The token is opaque to clients — they only ever see it wrapped inside
// a signed JWT.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
