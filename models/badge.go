package models

import (
	"time"
)

// BadgeDefinition: static catalog entry, shared by every member and never mutated
type BadgeDefinition struct {
	ID             string    `json:"id"`    // e.g., "eco-warrior"
	Title          string    `json:"title"` // "Eco Warrior"
	Icon           string    `json:"icon"`
	Description    string    `json:"description"`
	Type           BadgeType `json:"type"`
	PointsRequired int64     `json:"points_required"`
}

// MemberBadge: one unlock for one member. Rows are only ever inserted.
type MemberBadge struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID   string    `gorm:"uniqueIndex:idx_member_badge;not null" json:"member_id"`
	BadgeID    string    `gorm:"uniqueIndex:idx_member_badge;not null" json:"badge_id"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}

// BadgeStatus is the per-member view of a catalog badge.
type BadgeStatus struct {
	Badge      BadgeDefinition `json:"badge"`
	Unlocked   bool            `json:"is_unlocked"`
	UnlockedAt *time.Time      `json:"unlocked_date,omitempty"`
}
