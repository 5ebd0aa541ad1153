package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/service"
)

// AuthHandler runs the GitHub OAuth dance and the session endpoints.
//
// The browser flow ends with a redirect back to the SPA carrying the
// bearer token in the query string (?session=...&login=success); the SPA
// stores it and sends it back as an Authorization header from then on.
type AuthHandler struct {
	github      *auth.GitHubProvider
	auths       *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(github *auth.GitHubProvider, auths *service.AuthService, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		github:      github,
		auths:       auths,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github
//
// The random state value goes into a short-lived HttpOnly cookie; the
// callback rejects any request whose state does not match it, which
// stops a forged callback from logging the victim into an attacker's
// account.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the login.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// On success the browser is redirected to the frontend with the bearer
// token in the query string. Every failure also redirects to the
// frontend, with ?error=..., so the user never strands on an API origin
// error page.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch or missing state cookie")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		h.redirectWithError(w, r, "access_denied")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	result, err := h.auths.LoginWithGitHub(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		h.redirectWithError(w, r, "auth_failed")
		return
	}

	q := url.Values{}
	q.Set("session", result.Bearer)
	q.Set("login", "success")
	http.Redirect(w, r, h.frontendURL+"?"+q.Encode(), http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	q := url.Values{}
	q.Set("error", code)
	http.Redirect(w, r, h.frontendURL+"?"+q.Encode(), http.StatusFound)
}

// HandleLogout revokes the caller's session.
//
// HTTP: POST /auth/logout (authenticated)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}
	h.auths.Logout(sess)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleMe returns the authenticated user's profile and balance.
//
// HTTP: GET /api/user (authenticated)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	user, err := h.auths.CurrentUser(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}
