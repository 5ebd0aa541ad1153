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

// GetDaily returns the reconciliation record for (userID, date).
func (db *DB) GetDaily(ctx context.Context, userID, date string) (*model.DailyContribution, error) {
	var rec model.DailyContribution
	err := db.q.QueryRowContext(ctx,
		`SELECT id, user_id, date, count, reward, synced_at
		 FROM daily_contributions WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.Count, &rec.Reward, &rec.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("daily contribution", userID+"/"+date)
		}
		return nil, fmt.Errorf("sqlite: getting contribution %s/%s: %w", userID, date, err)
	}
	return &rec, nil
}

// InsertDaily creates the first record for a (user, date) pair. The
// UNIQUE(user_id, date) constraint makes a duplicate insert fail rather
// than silently double-credit.
func (db *DB) InsertDaily(ctx context.Context, rec *model.DailyContribution) error {
	rec.ID = xid.New().String()
	if rec.SyncedAt.IsZero() {
		rec.SyncedAt = time.Now().UTC()
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO daily_contributions (id, user_id, date, count, reward, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date, rec.Count, rec.Reward, rec.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting contribution %s/%s: %w", rec.UserID, rec.Date, err)
	}
	return nil
}

// UpdateDaily replaces the stored count/reward after an upstream revision.
func (db *DB) UpdateDaily(ctx context.Context, id string, count, reward int, syncedAt time.Time) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE daily_contributions SET count = ?, reward = ?, synced_at = ? WHERE id = ?`,
		count, reward, syncedAt, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating contribution %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("daily contribution", id)
	}
	return nil
}
