// Package session implements the server-side session store.
//
// WHY SERVER-SIDE SESSIONS WHEN WE ALREADY HAVE JWTs?
// The bearer credential the client holds is a signed JWT, but its subject
// is only an opaque session ID. The GitHub access token — which we need
// for every contribution sync and must never hand to the browser — lives
// here, keyed by that ID. Deleting the session revokes the login
// immediately, something a pure stateless JWT cannot do.
//
// The store is an interface so tests (and a future networked deployment)
// can swap the backing. The in-process implementation lives in memory.go.
package session

import "time"

// Identity is the GitHub profile captured at login time. It is refreshed
// into the users table on every authenticated call.
type Identity struct {
	GitHubID  int64
	Login     string
	AvatarURL string
}

// Session binds an opaque token to a GitHub access token and identity.
type Session struct {
	Token       string
	AccessToken string
	Identity    Identity
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry at time now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store is a concurrent-safe token → session map.
//
// Get must treat expired sessions as absent. Create generates the token
// and owns its entropy; callers never pick tokens.
type Store interface {
	Create(accessToken string, identity Identity) (Session, error)
	Get(token string) (Session, bool)
	Delete(token string)
}
