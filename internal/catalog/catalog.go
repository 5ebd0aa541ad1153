// Package catalog holds the static UMA species reference data.
//
// The catalog ships inside the binary as an embedded YAML file and is
// loaded once at startup, then seeded idempotently into the species
// table. Keeping it in YAML (rather than SQL or Go literals) means the
// species list can be reviewed and edited without touching code.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yuta/grassuma/internal/model"
)

//go:embed species.yaml
var speciesYAML []byte

type seedFile struct {
	Species []seedEntry `yaml:"species"`
}

type seedEntry struct {
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	Rarity      int    `yaml:"rarity"`
	Threshold   int    `yaml:"threshold"`
	Habitat     string `yaml:"habitat"`
	Description string `yaml:"description"`
	Inactive    bool   `yaml:"inactive"`
}

// Load parses the embedded seed file and validates every entry.
//
// Species IDs are their 1-based position in the file. The file is
// append-only by convention: removing or reordering entries would
// re-number species that existing discoveries reference, so retired
// species are marked inactive instead.
func Load() ([]model.Species, error) {
	var f seedFile
	if err := yaml.Unmarshal(speciesYAML, &f); err != nil {
		return nil, fmt.Errorf("catalog: parsing species.yaml: %w", err)
	}
	if len(f.Species) == 0 {
		return nil, fmt.Errorf("catalog: species.yaml contains no species")
	}

	seen := make(map[string]bool, len(f.Species))
	out := make([]model.Species, 0, len(f.Species))
	for i, e := range f.Species {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog: species %d has no name", i+1)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("catalog: duplicate species name %q", e.Name)
		}
		seen[e.Name] = true
		if e.Rarity < 1 || e.Rarity > 5 {
			return nil, fmt.Errorf("catalog: species %q rarity %d out of range 1-5", e.Name, e.Rarity)
		}
		if e.Threshold < 0 {
			return nil, fmt.Errorf("catalog: species %q has negative threshold", e.Name)
		}

		out = append(out, model.Species{
			ID:                 int64(i + 1),
			Name:               e.Name,
			Emoji:              e.Emoji,
			Rarity:             e.Rarity,
			DiscoveryThreshold: e.Threshold,
			Habitat:            e.Habitat,
			Description:        e.Description,
			Active:             !e.Inactive,
		})
	}

	return out, nil
}
