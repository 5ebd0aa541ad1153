package model

import "time"

// Activity types written to the audit log.
const (
	ActivityDiscovery = "discovery"
	ActivityFeeding   = "feeding"
)

// ActivityEntry is an append-only audit record of a discovery or feeding
// event. The game never reads it back; it exists so spending history can
// be reconstructed after the fact.
type ActivityEntry struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Type        string    `db:"type"`
	Description string    `db:"description"`
	Cost        int       `db:"cost"`
	CreatedAt   time.Time `db:"created_at"`
}
