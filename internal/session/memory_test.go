package session

import (
	"sync"
	"testing"
	"time"
)

// newTestStore creates a store with a controllable clock and no janitor
// dependence (expiry is also checked lazily on Get).
func newTestStore(t *testing.T, ttl time.Duration) (*MemoryStore, *time.Time) {
	t.Helper()
	s := NewMemoryStore(ttl)
	t.Cleanup(s.Close)

	current := time.Now()
	s.now = func() time.Time { return current }
	return s, &current
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	sess, err := s.Create("gho_token", Identity{GitHubID: 42, Login: "octocat"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.Token == "" {
		t.Fatal("Create() returned empty token")
	}

	got, ok := s.Get(sess.Token)
	if !ok {
		t.Fatal("Get() did not find freshly created session")
	}
	if got.AccessToken != "gho_token" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "gho_token")
	}
	if got.Identity.Login != "octocat" {
		t.Errorf("Login = %q, want %q", got.Identity.Login, "octocat")
	}
}

func TestGet_UnknownToken(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	if _, ok := s.Get("nope"); ok {
		t.Error("Get() found a session for an unknown token")
	}
}

func TestGet_ExpiredSessionIsAbsentAndReaped(t *testing.T) {
	s, clock := newTestStore(t, time.Hour)

	sess, err := s.Create("gho_token", Identity{GitHubID: 1, Login: "a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Advance past the TTL
	*clock = clock.Add(2 * time.Hour)

	if _, ok := s.Get(sess.Token); ok {
		t.Error("Get() returned an expired session")
	}
	if s.Len() != 0 {
		t.Errorf("expired session was not reaped, Len() = %d", s.Len())
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	sess, _ := s.Create("gho_token", Identity{GitHubID: 1, Login: "a"})
	s.Delete(sess.Token)

	if _, ok := s.Get(sess.Token); ok {
		t.Error("Get() found a deleted session")
	}

	// Deleting again must not panic
	s.Delete(sess.Token)
}

func TestTokensAreUnique(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	seen := make(map[string]bool)
	for range 100 {
		sess, err := s.Create("tok", Identity{})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[sess.Token] {
			t.Fatalf("duplicate token generated: %s", sess.Token)
		}
		seen[sess.Token] = true
	}
}

// The store is read on every authenticated request, potentially from many
// goroutines. Run with -race.
func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				sess, err := s.Create("tok", Identity{GitHubID: 7, Login: "x"})
				if err != nil {
					t.Error(err)
					return
				}
				s.Get(sess.Token)
				s.Delete(sess.Token)
			}
		}()
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after balanced create/delete, want 0", s.Len())
	}
}
