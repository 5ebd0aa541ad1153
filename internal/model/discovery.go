package model

import "time"

// Discovery is an owned UMA instance: the join between a user and a
// species, plus its growth state. A user owns at most one Discovery per
// species — enforced both by excluding owned species from the draw pool
// and by a UNIQUE(user_id, species_id) constraint.
//
// Affection is a 0–100 intimacy score, non-decreasing (feeding only adds)
// and capped at 100. Level is a pure function of affection:
// [0–19]→1, [20–39]→2, [40–59]→3, [60–79]→4, [80–100]→5.
type Discovery struct {
	ID           string    `json:"id"            db:"id"`
	UserID       string    `json:"-"             db:"user_id"`
	SpeciesID    int64     `json:"species_id"    db:"species_id"`
	Level        int       `json:"level"         db:"level"`
	Affection    int       `json:"affection"     db:"affection"`
	Nickname     string    `json:"nickname"      db:"nickname"`
	FedTotal     int       `json:"fed_total"     db:"fed_total"`
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`

	// Denormalised species fields, populated by the list query so the
	// client can render a card without a second round trip.
	SpeciesName string `json:"species_name" db:"-"`
	Emoji       string `json:"emoji"        db:"-"`
	Rarity      int    `json:"rarity"       db:"-"`
	Habitat     string `json:"habitat"      db:"-"`
	Description string `json:"description"  db:"-"`
}
