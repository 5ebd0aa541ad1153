package service

import (
	"context"
	"fmt"

	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/repository"
	"github.com/yuta/grassuma/internal/session"
)

// ensureAccount upserts the account for a session's identity and returns
// the canonical row, including the current balance and counters.
//
// Every core operation starts here: the account is created on the first
// authenticated call and the profile (login, avatar) refreshed on each
// subsequent one, so a GitHub rename shows up without re-login.
func ensureAccount(ctx context.Context, store repository.Store, ident session.Identity) (*model.User, error) {
	user := &model.User{
		GitHubID:  ident.GitHubID,
		Login:     ident.Login,
		AvatarURL: ident.AvatarURL,
	}
	if err := store.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting account (githubID=%d): %w", ident.GitHubID, err)
	}
	return user, nil
}
