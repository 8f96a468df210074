package engine

import (
	"cmp"
	"slices"

	"esg-engagement/models"
)

// Rank orders members by total score, then earlier join date, then id, and
// assigns distinct ranks from 1. When previous is given, each entry carries
// its rank movement; members absent from previous get none.
func Rank(members []models.Member, previous []models.LeaderboardEntry) []models.LeaderboardEntry {
	sorted := slices.Clone(members)
	slices.SortFunc(sorted, func(a, b models.Member) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	prevRank := make(map[string]int, len(previous))
	for _, e := range previous {
		prevRank[e.MemberID] = e.Rank
	}

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, m := range sorted {
		entry := models.LeaderboardEntry{
			MemberID:    m.ID,
			DisplayName: m.DisplayName,
			AvatarURL:   m.AvatarURL,
			Faculty:     m.Faculty,
			Rank:        i + 1,
			Score:       m.TotalScore,
		}
		if prev, ok := prevRank[m.ID]; ok {
			change := prev - entry.Rank
			entry.RankChange = &change
		}
		entries[i] = entry
	}
	return entries
}

// Top returns at most limit leading entries. A non-positive limit returns all.
func Top(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

// Around returns the entries within radius ranks of memberID, or nil when the
// member is not ranked.
func Around(entries []models.LeaderboardEntry, memberID string, radius int) []models.LeaderboardEntry {
	idx := slices.IndexFunc(entries, func(e models.LeaderboardEntry) bool { return e.MemberID == memberID })
	if idx < 0 {
		return nil
	}
	radius = max(radius, 0)
	start := max(idx-radius, 0)
	end := min(idx+radius+1, len(entries))
	return entries[start:end]
}
