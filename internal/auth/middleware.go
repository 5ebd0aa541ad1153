package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/yuta/grassuma/internal/session"
)

// contextKey is an unexported type for context keys in this package, so
// no other package can read or shadow the session value.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <jwt>", validates the signature, and
// resolves the JWT's subject against the session store. Either step
// failing ends the request with 401 — a valid signature over an expired
// or logged-out session is not enough.
//
// On success the full session (identity + GitHub access token) is stored
// in the request context for handlers to read via SessionFromContext.
func RequireAuth(tokens *TokenService, sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := resolveSession(r, tokens, sessions)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid session required","authenticated":false}`))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext retrieves the authenticated session placed in the
// context by RequireAuth. ok is false on anonymous requests.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(session.Session)
	return sess, ok && sess.Token != ""
}

func resolveSession(r *http.Request, tokens *TokenService, sessions session.Store) (session.Session, bool) {
	header := r.Header.Get("Authorization")
	bearer, found := strings.CutPrefix(header, "Bearer ")
	if !found || bearer == "" {
		return session.Session{}, false
	}

	sessionID, err := tokens.Validate(bearer)
	if err != nil {
		return session.Session{}, false
	}

	return sessions.Get(sessionID)
}
