package models

import "time"

// LeaderboardEntry is one row of a ranking. Always derived from member
// scores, never stored as authoritative state.
type LeaderboardEntry struct {
	MemberID    string  `json:"user_id"`
	DisplayName string  `json:"user_name"`
	AvatarURL   *string `json:"user_avatar,omitempty"`
	Faculty     *string `json:"faculty,omitempty"`
	Rank        int     `json:"rank"`
	Score       int64   `json:"score"`
	RankChange  *int    `json:"change,omitempty"` // positive = moved up
}

// Medal returns the podium marker for the top three ranks.
func (e LeaderboardEntry) Medal() string {
	switch e.Rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// LeaderboardSnapshot keeps a published ranking so the next one can report
// rank changes.
type LeaderboardSnapshot struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	PeriodStart time.Time `gorm:"uniqueIndex:idx_snapshot_member;type:date;not null" json:"period_start"`
	MemberID    string    `gorm:"uniqueIndex:idx_snapshot_member;not null" json:"user_id"`
	Rank        int       `gorm:"not null" json:"rank"`
	Score       int64     `gorm:"not null" json:"score"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
