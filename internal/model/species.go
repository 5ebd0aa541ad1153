package model

// Species is a catalog-defined UMA type. Catalog rows are reference data:
// seeded at startup from the embedded YAML file and never mutated by the
// game operations.
//
// Rarity runs 1 (common) to 5 (legendary). DiscoveryThreshold is the
// minimum grass power a user must hold for the species to enter the
// discovery pool; it doubles as the discovery cost (floored at the
// minimum ritual cost of 10).
type Species struct {
	ID                 int64  `json:"id"                  db:"id"`
	Name               string `json:"name"                db:"name"`
	Emoji              string `json:"emoji"               db:"emoji"`
	Rarity             int    `json:"rarity"              db:"rarity"`
	DiscoveryThreshold int    `json:"discovery_threshold" db:"discovery_threshold"`
	Habitat            string `json:"habitat"             db:"habitat"`
	Description        string `json:"description"         db:"description"`
	Active             bool   `json:"active"              db:"active"`
}
