package engine

import (
	"time"

	"esg-engagement/models"
)

// Progression is the derived level and badge view of one member.
type Progression struct {
	MemberID         string               `json:"user_id"`
	TotalScore       int64                `json:"total_esg_score"`
	Level            string               `json:"level"`
	LevelIndex       int                  `json:"level_index"`
	BandFloor        int64                `json:"band_floor"`
	NextBandFloor    *int64               `json:"next_band_floor,omitempty"`
	ProgressFraction float64              `json:"progress"`
	Badges           []models.BadgeStatus `json:"badges"`
	UnlockedBadges   []models.MemberBadge `json:"-"`
	NewlyUnlocked    []string             `json:"newly_unlocked,omitempty"`
}

// Resolve derives level, progress and badge state from a member snapshot.
// Badges already unlocked on the member stay unlocked with their original
// timestamp even if the score would no longer qualify; badges that qualify
// for the first time are stamped with at. New rows carry no id; the store
// assigns one on insert.
func Resolve(member models.Member, catalog models.Catalog, at time.Time) (Progression, error) {
	if err := catalog.Validate(); err != nil {
		return Progression{}, newError(KindInvalidState, err, "catalog")
	}
	if err := member.Validate(); err != nil {
		return Progression{}, newError(KindInvalidState, err, "member %s", member.ID)
	}

	p := Progression{MemberID: member.ID, TotalScore: member.TotalScore}

	bands := catalog.Bands()
	band := bands[0]
	for _, b := range bands {
		if b.Floor <= member.TotalScore {
			band = b
		}
	}
	p.Level = band.Name
	p.LevelIndex = band.Index
	p.BandFloor = band.Floor
	p.NextBandFloor = band.Ceiling
	p.ProgressFraction = progressFraction(member.TotalScore, band)

	existing := make(map[string]models.MemberBadge, len(member.UnlockedBadges))
	for _, b := range member.UnlockedBadges {
		existing[b.BadgeID] = b
	}
	p.UnlockedBadges = append([]models.MemberBadge(nil), member.UnlockedBadges...)

	stamp := at.UTC()
	p.Badges = make([]models.BadgeStatus, 0, len(catalog.Badges))
	for _, def := range catalog.Badges {
		status := models.BadgeStatus{Badge: def}
		if b, ok := existing[def.ID]; ok {
			unlockedAt := b.UnlockedAt
			status.Unlocked = true
			status.UnlockedAt = &unlockedAt
		} else if qualifies(member, def) {
			unlockedAt := stamp
			status.Unlocked = true
			status.UnlockedAt = &unlockedAt
			p.UnlockedBadges = append(p.UnlockedBadges, models.MemberBadge{
				MemberID:   member.ID,
				BadgeID:    def.ID,
				UnlockedAt: stamp,
			})
			p.NewlyUnlocked = append(p.NewlyUnlocked, def.ID)
		}
		p.Badges = append(p.Badges, status)
	}
	return p, nil
}

// ApplyProgression stores the resolved unlock set on the member.
func ApplyProgression(member models.Member, p Progression) models.Member {
	out := member.Clone()
	out.UnlockedBadges = append([]models.MemberBadge(nil), p.UnlockedBadges...)
	return out
}

func progressFraction(score int64, band models.LevelBand) float64 {
	if band.Ceiling == nil {
		return 1
	}
	span := *band.Ceiling - band.Floor
	if span <= 0 {
		return 1
	}
	f := float64(score-band.Floor) / float64(span)
	return min(max(f, 0), 1)
}

// qualifies compares category badges against the matching category score and
// every other badge type against the total.
func qualifies(member models.Member, def models.BadgeDefinition) bool {
	if c, ok := def.Type.Category(); ok {
		return member.CategoryScore(c) >= def.PointsRequired
	}
	return member.TotalScore >= def.PointsRequired
}
