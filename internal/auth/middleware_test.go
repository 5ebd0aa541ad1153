package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yuta/grassuma/internal/session"
)

func newTestAuthStack(t *testing.T) (*TokenService, *session.MemoryStore) {
	t.Helper()
	tokens := newTestTokenService(t)
	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(sessions.Close)
	return tokens, sessions
}

// loginBearer runs the login tail end: create a session, sign a JWT over
// its ID, return the Authorization header value.
func loginBearer(t *testing.T, tokens *TokenService, sessions session.Store) (string, session.Session) {
	t.Helper()
	sess, err := sessions.Create("gho_abc", session.Identity{GitHubID: 42, Login: "octocat"})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	jwt, err := tokens.Generate(sess.Token, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return "Bearer " + jwt, sess
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens, sessions := newTestAuthStack(t)
	bearer, want := loginBearer(t, tokens, sessions)

	var got session.Session
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = SessionFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", bearer)
	rr := httptest.NewRecorder()

	RequireAuth(tokens, sessions)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !ok {
		t.Fatal("handler did not receive a session in context")
	}
	if got.Token != want.Token || got.Identity.Login != "octocat" {
		t.Errorf("session in context = %+v, want %+v", got, want)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tokens, sessions := newTestAuthStack(t)
	bearer, sess := loginBearer(t, tokens, sessions)

	// A structurally valid JWT whose session has been revoked.
	sessions.Delete(sess.Token)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"revoked session", bearer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			RequireAuth(tokens, sessions)(next).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
			if called {
				t.Error("next handler ran on an unauthenticated request")
			}
		})
	}
}
