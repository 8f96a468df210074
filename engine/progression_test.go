package engine

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"esg-engagement/models"
)

// Scenario: a 450-point member sits halfway through the Champion band.
func TestResolveChampionHalfway(t *testing.T) {
	m := testMember("u1", 150, 200, 100)
	p, err := Resolve(m, models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Level != "Champion" || p.LevelIndex != 2 {
		t.Fatalf("expected Champion, got %s (%d)", p.Level, p.LevelIndex)
	}
	if p.BandFloor != 300 || p.NextBandFloor == nil || *p.NextBandFloor != 600 {
		t.Fatalf("unexpected band %d..%v", p.BandFloor, p.NextBandFloor)
	}
	if p.ProgressFraction != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", p.ProgressFraction)
	}
	if !slices.Equal(p.NewlyUnlocked, []string{"first-steps"}) {
		t.Fatalf("unexpected unlocks %v", p.NewlyUnlocked)
	}
}

func TestResolveLevelBoundaries(t *testing.T) {
	tests := []struct {
		total    int64
		level    string
		progress float64
	}{
		{0, "Beginner", 0},
		{99, "Beginner", 0.99},
		{100, "Activist", 0},
		{1000, "Legend", 0},
		{1500, "Legend", 0.5},
		{2000, "Legend", 1},
		{5000, "Legend", 1},
	}
	for _, tt := range tests {
		p, err := Resolve(testMember("u1", tt.total, 0, 0), models.DefaultCatalog(), testNow)
		if err != nil {
			t.Fatalf("resolve %d: %v", tt.total, err)
		}
		if p.Level != tt.level || p.ProgressFraction != tt.progress {
			t.Fatalf("score %d: got %s %v, want %s %v", tt.total, p.Level, p.ProgressFraction, tt.level, tt.progress)
		}
	}
}

func TestResolveUnboundedTopBand(t *testing.T) {
	catalog := models.Catalog{LevelThresholds: []int64{0, 100}, LevelNames: []string{"Seed", "Tree"}}
	p, err := Resolve(testMember("u1", 150, 0, 0), catalog, testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Level != "Tree" || p.ProgressFraction != 1 || p.NextBandFloor != nil {
		t.Fatalf("expected complete top band, got %+v", p)
	}
}

func TestResolveCategoryBadges(t *testing.T) {
	// 260 environmental but only 260 total: Eco Warrior unlocks, Rising Leader does not.
	p, err := Resolve(testMember("u1", 260, 0, 0), models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !slices.Equal(p.NewlyUnlocked, []string{"first-steps", "eco-warrior"}) {
		t.Fatalf("unexpected unlocks %v", p.NewlyUnlocked)
	}

	// 450 spread across categories misses every category badge.
	p, err = Resolve(testMember("u2", 150, 150, 150), models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slices.Contains(p.NewlyUnlocked, "social-butterfly") || slices.Contains(p.NewlyUnlocked, "eco-warrior") {
		t.Fatalf("category badges must compare category scores, got %v", p.NewlyUnlocked)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	m := testMember("u1", 300, 320, 10)
	first, err := Resolve(m, models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := Resolve(m, models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolve is not idempotent:\n%+v\n%+v", first, second)
	}

	// Re-resolving after applying keeps timestamps and unlocks nothing new.
	applied := ApplyProgression(m, first)
	again, err := Resolve(applied, models.DefaultCatalog(), testNow.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(again.NewlyUnlocked) != 0 {
		t.Fatalf("expected no new unlocks, got %v", again.NewlyUnlocked)
	}
	if !reflect.DeepEqual(first.Badges, again.Badges) || first.Level != again.Level {
		t.Fatalf("derived view changed after apply")
	}
}

func TestBadgeUnlockIsMonotonic(t *testing.T) {
	catalog := models.DefaultCatalog()
	m := testMember("u1", 0, 0, 0)
	unlocked := map[string]time.Time{}
	at := testNow

	events := []models.Event{
		testEvent("e1", models.CategoryEnvironmental, 120),
		testEvent("e2", models.CategorySocial, 150),
		testEvent("e3", models.CategoryEnvironmental, 140),
		testEvent("e4", models.CategorySocial, 160),
		testEvent("e5", models.CategoryGovernance, 200),
	}
	for i, e := range events {
		var err error
		m, err = ApplyCompletion(m, e, nil, at)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		p, err := Resolve(m, catalog, at)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		m = ApplyProgression(m, p)
		if err := m.Validate(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for id, first := range unlocked {
			var found bool
			for _, s := range p.Badges {
				if s.Badge.ID == id {
					found = s.Unlocked && s.UnlockedAt.Equal(first)
				}
			}
			if !found {
				t.Fatalf("step %d: badge %s relocked or restamped", i, id)
			}
		}
		for _, s := range p.Badges {
			if s.Unlocked {
				if _, ok := unlocked[s.Badge.ID]; !ok {
					unlocked[s.Badge.ID] = *s.UnlockedAt
				}
			}
		}
		at = at.AddDate(0, 0, 7)
	}
	if len(unlocked) != len(catalog.Badges) {
		t.Fatalf("expected every badge unlocked, got %v", unlocked)
	}
}

func TestResolveKeepsBadgesBeyondScore(t *testing.T) {
	earlier := testNow.Add(-time.Hour)
	m := testMember("u1", 10, 0, 0)
	m.UnlockedBadges = []models.MemberBadge{{MemberID: "u1", BadgeID: "rising-leader", UnlockedAt: earlier}}
	p, err := Resolve(m, models.DefaultCatalog(), testNow)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, s := range p.Badges {
		if s.Badge.ID == "rising-leader" && (!s.Unlocked || !s.UnlockedAt.Equal(earlier)) {
			t.Fatalf("existing unlock must be kept with its timestamp")
		}
	}
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	broken := testMember("u1", 10, 0, 0)
	broken.TotalScore = 11
	if _, err := Resolve(broken, models.DefaultCatalog(), testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, err := Resolve(testMember("u1", 0, 0, 0), models.Catalog{}, testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for empty catalog, got %v", err)
	}
}
