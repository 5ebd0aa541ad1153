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

// InsertDiscovery creates an owned UMA instance. A duplicate
// (user, species) pair violates the UNIQUE constraint — the draw pool
// should have excluded it, so surfacing the conflict loudly is correct.
func (db *DB) InsertDiscovery(ctx context.Context, d *model.Discovery) error {
	d.ID = xid.New().String()
	if d.DiscoveredAt.IsZero() {
		d.DiscoveredAt = time.Now().UTC()
	}
	if d.Level == 0 {
		d.Level = 1
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO discoveries (id, user_id, species_id, level, affection, nickname, fed_total, discovered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.SpeciesID, d.Level, d.Affection, d.Nickname, d.FedTotal, d.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting discovery (user=%s species=%d): %w", d.UserID, d.SpeciesID, err)
	}
	return nil
}

const discoveryColumns = `
	d.id, d.user_id, d.species_id, d.level, d.affection, d.nickname, d.fed_total, d.discovered_at,
	s.name, s.emoji, s.rarity, s.habitat, s.description`

// GetDiscoveryForUser returns one discovery scoped to its owner.
// Someone else's discovery ID is a NotFound, indistinguishable from a
// nonexistent one.
func (db *DB) GetDiscoveryForUser(ctx context.Context, id, userID string) (*model.Discovery, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+discoveryColumns+`
		 FROM discoveries d JOIN species s ON s.id = d.species_id
		 WHERE d.id = ? AND d.user_id = ?`,
		id, userID)

	d, err := scanDiscovery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("discovery", id)
		}
		return nil, fmt.Errorf("sqlite: getting discovery %s: %w", id, err)
	}
	return d, nil
}

// ListDiscoveries returns a user's collection, newest first, with the
// species fields joined in for rendering.
func (db *DB) ListDiscoveries(ctx context.Context, userID string) ([]model.Discovery, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT `+discoveryColumns+`
		 FROM discoveries d JOIN species s ON s.id = d.species_id
		 WHERE d.user_id = ?
		 ORDER BY d.discovered_at DESC, d.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing discoveries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Discovery
	for rows.Next() {
		d, err := scanDiscovery(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning discovery row: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating discovery rows: %w", err)
	}
	return out, nil
}

// UpdateGrowth writes the feeding outcome: new level/affection plus the
// amount just fed added to the lifetime total.
func (db *DB) UpdateGrowth(ctx context.Context, id string, level, affection, fedDelta int) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE discoveries SET level = ?, affection = ?, fed_total = fed_total + ? WHERE id = ?`,
		level, affection, fedDelta, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating discovery %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("discovery", id)
	}
	return nil
}

// DeleteDiscoveriesForUser wipes a user's collection. Debug reset only.
func (db *DB) DeleteDiscoveriesForUser(ctx context.Context, userID string) (int, error) {
	res, err := db.q.ExecContext(ctx,
		`DELETE FROM discoveries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting discoveries for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete rows affected: %w", err)
	}
	return int(n), nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDiscovery(row scanner) (*model.Discovery, error) {
	var d model.Discovery
	err := row.Scan(
		&d.ID, &d.UserID, &d.SpeciesID, &d.Level, &d.Affection, &d.Nickname, &d.FedTotal, &d.DiscoveredAt,
		&d.SpeciesName, &d.Emoji, &d.Rarity, &d.Habitat, &d.Description,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
