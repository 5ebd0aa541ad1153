package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/yuta/grassuma/internal/model"
)

// AppendActivity writes one audit row. Runs inside the same transaction
// as the mutation it describes, so the log can never show a spend that
// was rolled back.
func (db *DB) AppendActivity(ctx context.Context, entry *model.ActivityEntry) error {
	entry.ID = xid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO activity_log (id, user_id, type, description, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Type, entry.Description, entry.Cost, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending activity for user %s: %w", entry.UserID, err)
	}
	return nil
}
