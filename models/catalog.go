package models

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gosimple/slug"
)

// Catalog is the static configuration the progression resolver reads:
// level bands and the badge list.
type Catalog struct {
	LevelThresholds []int64           `json:"level_thresholds"`
	LevelNames      []string          `json:"level_names"`
	Badges          []BadgeDefinition `json:"badges"`
}

// LevelBand is a contiguous score interval mapped to one level name.
// Ceiling is nil for an unbounded band.
type LevelBand struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Floor   int64  `json:"floor"`
	Ceiling *int64 `json:"ceiling,omitempty"`
}

// DefaultCatalog returns the program's built-in levels and badges.
func DefaultCatalog() Catalog {
	return Catalog{
		LevelThresholds: []int64{0, 100, 300, 600, 1000, 2000},
		LevelNames:      []string{"Beginner", "Activist", "Champion", "Leader", "Legend"},
		Badges: []BadgeDefinition{
			{ID: "first-steps", Title: "First Steps", Icon: "star.fill", Description: "Join your first event", Type: BadgeTypeMilestone, PointsRequired: 0},
			{ID: "civic-voice", Title: "Civic Voice", Icon: "building.columns.fill", Description: "Earn 200 governance points", Type: BadgeTypeGovernance, PointsRequired: 200},
			{ID: "eco-warrior", Title: "Eco Warrior", Icon: "leaf.fill", Description: "Earn 250 environmental points", Type: BadgeTypeEnvironmental, PointsRequired: 250},
			{ID: "social-butterfly", Title: "Social Butterfly", Icon: "person.3.fill", Description: "Earn 300 social points", Type: BadgeTypeSocial, PointsRequired: 300},
			{ID: "rising-leader", Title: "Rising Leader", Icon: "star.circle.fill", Description: "Reach 500 ESG points", Type: BadgeTypeMilestone, PointsRequired: 500},
		},
	}
}

// DecodeCatalog reads a JSON catalog, fills missing badge ids from their
// titles and validates the result.
func DecodeCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range c.Badges {
		if strings.TrimSpace(c.Badges[i].ID) == "" {
			c.Badges[i].ID = slug.Make(c.Badges[i].Title)
		}
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks the level table is ascending from zero and badge ids are unique.
func (c Catalog) Validate() error {
	if len(c.LevelNames) == 0 {
		return fmt.Errorf("%w: at least one level is required", ErrInvalidCatalog)
	}
	if n := len(c.LevelThresholds); n != len(c.LevelNames) && n != len(c.LevelNames)+1 {
		return fmt.Errorf("%w: %d thresholds for %d level names", ErrInvalidCatalog, n, len(c.LevelNames))
	}
	if c.LevelThresholds[0] != 0 {
		return fmt.Errorf("%w: first threshold must be 0", ErrInvalidCatalog)
	}
	for i := 1; i < len(c.LevelThresholds); i++ {
		if c.LevelThresholds[i] <= c.LevelThresholds[i-1] {
			return fmt.Errorf("%w: thresholds must be strictly ascending", ErrInvalidCatalog)
		}
	}
	seen := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if b.ID == "" {
			return fmt.Errorf("%w: badge %q has no id", ErrInvalidCatalog, b.Title)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate badge id %q", ErrInvalidCatalog, b.ID)
		}
		seen[b.ID] = true
		if !b.Type.Valid() {
			return fmt.Errorf("%w: badge %q has unknown type %q", ErrInvalidCatalog, b.ID, b.Type)
		}
		if b.PointsRequired < 0 {
			return fmt.Errorf("%w: badge %q requires negative points", ErrInvalidCatalog, b.ID)
		}
	}
	return nil
}

// Bands expands the level table. When there is one more threshold than names,
// the trailing threshold becomes the ceiling of the top band.
func (c Catalog) Bands() []LevelBand {
	bands := make([]LevelBand, len(c.LevelNames))
	for i, name := range c.LevelNames {
		bands[i] = LevelBand{Index: i, Name: name, Floor: c.LevelThresholds[i]}
		if i+1 < len(c.LevelThresholds) {
			ceiling := c.LevelThresholds[i+1]
			bands[i].Ceiling = &ceiling
		}
	}
	return bands
}

// Badge looks a definition up by id.
func (c Catalog) Badge(id string) (BadgeDefinition, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}
