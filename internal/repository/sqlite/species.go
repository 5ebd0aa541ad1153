package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
)

// SeedSpecies upserts catalog rows by ID. ON CONFLICT keeps the seed
// idempotent across restarts while still picking up edits to the YAML
// (new habitat text, a species toggled inactive, ...).
func (db *DB) SeedSpecies(ctx context.Context, species []model.Species) error {
	for _, s := range species {
		_, err := db.q.ExecContext(ctx,
			`INSERT INTO species (id, name, emoji, rarity, discovery_threshold, habitat, description, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				emoji = excluded.emoji,
				rarity = excluded.rarity,
				discovery_threshold = excluded.discovery_threshold,
				habitat = excluded.habitat,
				description = excluded.description,
				active = excluded.active`,
			s.ID, s.Name, s.Emoji, s.Rarity, s.DiscoveryThreshold,
			s.Habitat, s.Description, boolToInt(s.Active),
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding species %q: %w", s.Name, err)
		}
	}
	return nil
}

// ListSpecies returns the whole catalog ordered by threshold, the order
// the SPA's picture book renders.
func (db *DB) ListSpecies(ctx context.Context) ([]model.Species, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, name, emoji, rarity, discovery_threshold, habitat, description, active
		 FROM species ORDER BY discovery_threshold, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing species: %w", err)
	}
	defer rows.Close()

	return scanSpecies(rows)
}

// GetSpecies returns one catalog row by ID.
func (db *DB) GetSpecies(ctx context.Context, id int64) (*model.Species, error) {
	var s model.Species
	var active int
	err := db.q.QueryRowContext(ctx,
		`SELECT id, name, emoji, rarity, discovery_threshold, habitat, description, active
		 FROM species WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Emoji, &s.Rarity, &s.DiscoveryThreshold,
		&s.Habitat, &s.Description, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("species", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting species %d: %w", id, err)
	}
	s.Active = active != 0
	return &s, nil
}

// ListEligibleSpecies returns the discovery pool for a user at the given
// power: active, affordable, not yet owned.
func (db *DB) ListEligibleSpecies(ctx context.Context, userID string, power int) ([]model.Species, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, name, emoji, rarity, discovery_threshold, habitat, description, active
		 FROM species
		 WHERE active = 1
		   AND discovery_threshold <= ?
		   AND id NOT IN (SELECT species_id FROM discoveries WHERE user_id = ?)
		 ORDER BY id`,
		power, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing eligible species for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanSpecies(rows)
}

func scanSpecies(rows *sql.Rows) ([]model.Species, error) {
	var out []model.Species
	for rows.Next() {
		var s model.Species
		var active int
		if err := rows.Scan(&s.ID, &s.Name, &s.Emoji, &s.Rarity, &s.DiscoveryThreshold,
			&s.Habitat, &s.Description, &active); err != nil {
			return nil, fmt.Errorf("sqlite: scanning species row: %w", err)
		}
		s.Active = active != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating species rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
