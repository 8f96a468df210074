package models

import (
	"fmt"
	"strings"
	"time"
)

// Member is a program participant with denormalized score and streak counters.
// Scores only change through the scoring engine; badges only through the
// progression resolver.
type Member struct {
	ID          string  `gorm:"primaryKey" json:"id"` // stable id supplied by the identity service
	DisplayName string  `gorm:"index;not null" json:"name"`
	Email       string  `gorm:"index" json:"email,omitempty"`
	StudentID   *string `json:"student_id,omitempty"`
	Faculty     *string `json:"faculty,omitempty"`
	AvatarURL   *string `json:"avatar,omitempty"`

	JoinedAt time.Time `gorm:"not null" json:"joined_date"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	// Score breakdown
	TotalScore         int64 `gorm:"default:0;index" json:"total_esg_score"`
	EnvironmentalScore int64 `gorm:"default:0" json:"environmental_score"`
	SocialScore        int64 `gorm:"default:0" json:"social_score"`
	GovernanceScore    int64 `gorm:"default:0" json:"governance_score"`

	UnlockedBadges []MemberBadge `gorm:"foreignKey:MemberID" json:"badges"`

	// Statistics
	EventsAttended   int64      `gorm:"default:0" json:"events_attended"`
	EventsCompleted  int64      `gorm:"default:0" json:"events_completed"`
	CurrentStreak    int64      `gorm:"default:0" json:"current_streak"`
	LongestStreak    int64      `gorm:"default:0" json:"longest_streak"`
	LastCompletionAt *time.Time `json:"last_completion_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times. Members and participations are never
// deleted, so there is no soft-delete column.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMemberInput carries the profile fields known at registration.
type NewMemberInput struct {
	ID          string
	DisplayName string
	Email       string
	StudentID   *string
	Faculty     *string
	AvatarURL   *string
}

// NewMember creates a zero-score member joined at now.
func NewMember(input NewMemberInput, now time.Time) (Member, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return Member{}, ErrEmptyID
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return Member{}, ErrEmptyDisplayName
	}
	return Member{
		ID:          id,
		DisplayName: name,
		Email:       strings.TrimSpace(input.Email),
		StudentID:   input.StudentID,
		Faculty:     input.Faculty,
		AvatarURL:   input.AvatarURL,
		JoinedAt:    now.UTC(),
		IsActive:    true,
	}, nil
}

// Validate checks every field invariant of the snapshot.
func (m Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyID
	}
	if m.EnvironmentalScore < 0 || m.SocialScore < 0 || m.GovernanceScore < 0 || m.TotalScore < 0 {
		return ErrNegativeScore
	}
	if m.TotalScore != m.EnvironmentalScore+m.SocialScore+m.GovernanceScore {
		return fmt.Errorf("%w: total %d, categories %d/%d/%d", ErrScoreMismatch,
			m.TotalScore, m.EnvironmentalScore, m.SocialScore, m.GovernanceScore)
	}
	if m.EventsAttended < 0 || m.EventsCompleted < 0 || m.CurrentStreak < 0 || m.LongestStreak < 0 {
		return ErrNegativeCounter
	}
	if m.LongestStreak < m.CurrentStreak {
		return ErrStreakInvariant
	}
	seen := make(map[string]bool, len(m.UnlockedBadges))
	for _, b := range m.UnlockedBadges {
		if seen[b.BadgeID] {
			return fmt.Errorf("%w: %s", ErrDuplicateBadge, b.BadgeID)
		}
		seen[b.BadgeID] = true
	}
	return nil
}

// SameAs compares members by identifier.
func (m Member) SameAs(other Member) bool {
	return m.ID == other.ID
}

// CategoryScore returns the score bucket for c.
func (m Member) CategoryScore(c Category) int64 {
	switch c {
	case CategoryEnvironmental:
		return m.EnvironmentalScore
	case CategorySocial:
		return m.SocialScore
	case CategoryGovernance:
		return m.GovernanceScore
	}
	return 0
}

// HasBadge reports whether badgeID is already unlocked.
func (m Member) HasBadge(badgeID string) bool {
	for _, b := range m.UnlockedBadges {
		if b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with m.
func (m Member) Clone() Member {
	out := m
	if m.UnlockedBadges != nil {
		out.UnlockedBadges = append([]MemberBadge(nil), m.UnlockedBadges...)
	}
	if m.LastCompletionAt != nil {
		t := *m.LastCompletionAt
		out.LastCompletionAt = &t
	}
	return out
}
