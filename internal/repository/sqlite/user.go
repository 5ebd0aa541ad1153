package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
)

// Upsert inserts a user keyed on github_id, or refreshes login/avatar on
// the existing row. Either way the passed struct is filled with the
// canonical database state afterwards, including the current balance —
// callers see fresh power/counters on every authenticated request.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.q.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		_, err = db.q.ExecContext(ctx,
			`UPDATE users SET login = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
			user.Login, user.AvatarURL, time.Now().UTC(), existingID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
		}
		user.ID = existingID
	} else {
		now := time.Now().UTC()
		user.ID = xid.New().String()
		user.CreatedAt = now
		user.UpdatedAt = now

		_, err = db.q.ExecContext(ctx,
			`INSERT INTO users (id, github_id, login, avatar_url, grass_power, total_discoveries, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
			user.ID, user.GitHubID, user.Login, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
	}

	// Read back balance/counters so the caller holds canonical state.
	fresh, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *fresh
	return nil
}

// GetUserByID retrieves a user by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.q.QueryRowContext(ctx,
		`SELECT id, github_id, login, avatar_url, grass_power, total_discoveries, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.GitHubID, &u.Login, &u.AvatarURL,
		&u.GrassPower, &u.TotalDiscoveries, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

// CreditPower applies a delta to the balance, clamping at zero.
//
// The clamp lives in SQL (MAX) so a downward contribution revision can
// never trip the CHECK constraint or leave a negative balance, and the
// whole adjustment is one atomic statement.
func (db *DB) CreditPower(ctx context.Context, userID string, delta int) (int, error) {
	res, err := db.q.ExecContext(ctx,
		`UPDATE users SET grass_power = MAX(grass_power + ?, 0), updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: crediting %d power to user %s: %w", delta, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, apperror.NotFound("user", userID)
	}

	return db.currentPower(ctx, userID)
}

// DebitPower subtracts cost only when the balance covers it.
//
// The guard is the WHERE clause: two racing spends both run this UPDATE,
// but the second sees the already-reduced balance and affects zero rows,
// which surfaces as ErrInsufficientPower. No app-level lock needed.
func (db *DB) DebitPower(ctx context.Context, userID string, cost int) (int, error) {
	if cost < 0 {
		return 0, fmt.Errorf("sqlite: negative debit %d for user %s", cost, userID)
	}

	res, err := db.q.ExecContext(ctx,
		`UPDATE users SET grass_power = grass_power - ?, updated_at = ?
		 WHERE id = ? AND grass_power >= ?`,
		cost, time.Now().UTC(), userID, cost,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: debiting %d power from user %s: %w", cost, userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: debit rows affected: %w", err)
	}
	if n == 0 {
		current, perr := db.currentPower(ctx, userID)
		if perr != nil {
			return 0, perr
		}
		return 0, apperror.InsufficientPower(current, cost)
	}

	return db.currentPower(ctx, userID)
}

// IncrementDiscoveries bumps the monotonic discovery counter.
func (db *DB) IncrementDiscoveries(ctx context.Context, userID string) error {
	_, err := db.q.ExecContext(ctx,
		`UPDATE users SET total_discoveries = total_discoveries + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing discoveries for user %s: %w", userID, err)
	}
	return nil
}

// ResetDiscoveryCount zeroes total_discoveries. Debug reset only.
func (db *DB) ResetDiscoveryCount(ctx context.Context, userID string) error {
	_, err := db.q.ExecContext(ctx,
		`UPDATE users SET total_discoveries = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: resetting discovery count for user %s: %w", userID, err)
	}
	return nil
}

func (db *DB) currentPower(ctx context.Context, userID string) (int, error) {
	var power int
	err := db.q.QueryRowContext(ctx,
		`SELECT grass_power FROM users WHERE id = ?`, userID,
	).Scan(&power)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("user", userID)
		}
		return 0, fmt.Errorf("sqlite: reading balance for user %s: %w", userID, err)
	}
	return power, nil
}
