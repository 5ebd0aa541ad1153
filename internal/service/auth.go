package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/repository"
	"github.com/yuta/grassuma/internal/session"
)

// IdentityProvider is what AuthService needs from the OAuth layer.
// *auth.GitHubProvider satisfies it; tests substitute a stub.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, string, error)
}

// AuthService orchestrates login: OAuth exchange, account upsert, session
// creation, and bearer-token issuance.
type AuthService struct {
	provider IdentityProvider
	store    repository.TxStore
	sessions session.Store
	tokens   *auth.TokenService
	ttl      time.Duration
	logger   *slog.Logger
}

func NewAuthService(
	provider IdentityProvider,
	store repository.TxStore,
	sessions session.Store,
	tokens *auth.TokenService,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &AuthService{
		provider: provider,
		store:    store,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		logger:   logger,
	}
}

// LoginResult bundles what the callback handler needs: the user for
// logging and the signed bearer token to hand to the SPA.
type LoginResult struct {
	User   *model.User
	Bearer string
}

// LoginWithGitHub completes the OAuth callback: exchanges the code for an
// access token + profile, upserts the account, stores the access token in
// a fresh session, and signs a bearer token over the session ID.
func (s *AuthService) LoginWithGitHub(ctx context.Context, code string) (*LoginResult, error) {
	ghUser, accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	ident := session.Identity{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		AvatarURL: ghUser.AvatarURL,
	}

	user, err := ensureAccount(ctx, s.store, ident)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	sess, err := s.sessions.Create(accessToken, ident)
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating session: %w", err)
	}

	bearer, err := s.tokens.Generate(sess.Token, s.ttl)
	if err != nil {
		s.sessions.Delete(sess.Token)
		return nil, fmt.Errorf("service/auth: issuing bearer token: %w", err)
	}

	s.logger.Info("user logged in via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return &LoginResult{User: user, Bearer: bearer}, nil
}

// Logout revokes a session. Unknown tokens are a no-op — logging out
// twice is not an error.
func (s *AuthService) Logout(sess session.Session) {
	s.sessions.Delete(sess.Token)
}

// CurrentUser returns the canonical account for a session, refreshing the
// profile fields on the way.
func (s *AuthService) CurrentUser(ctx context.Context, sess session.Session) (*model.User, error) {
	user, err := ensureAccount(ctx, s.store, sess.Identity)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	return user, nil
}
