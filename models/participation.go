package models

import (
	"fmt"
	"strings"
	"time"
)

// Participation = one member's registration for one event, and its outcome
type Participation struct {
	ID       string              `gorm:"primaryKey;type:uuid" json:"id"`
	MemberID string              `gorm:"not null;uniqueIndex:idx_active_participation,where:status <> 'Cancelled'" json:"user_id"`
	EventID  string              `gorm:"not null;index;uniqueIndex:idx_active_participation,where:status <> 'Cancelled'" json:"event_id"`
	Status   ParticipationStatus `gorm:"type:varchar(16);not null;default:'Registered';index" json:"status"`

	RegisteredAt time.Time  `gorm:"not null" json:"registration_date"`
	CompletedAt  *time.Time `json:"completion_date,omitempty"`
	PointsEarned *int64     `json:"points_earned,omitempty"` // set exactly once, on completion

	Rating   *int    `json:"rating,omitempty"` // 1-5 stars
	Feedback *string `gorm:"type:text" json:"feedback,omitempty"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	Timestamps
}

// NewParticipation builds a Registered participation.
func NewParticipation(id, memberID, eventID string, registeredAt time.Time) (Participation, error) {
	id, memberID, eventID = strings.TrimSpace(id), strings.TrimSpace(memberID), strings.TrimSpace(eventID)
	if id == "" || memberID == "" || eventID == "" {
		return Participation{}, ErrEmptyID
	}
	return Participation{
		ID:           id,
		MemberID:     memberID,
		EventID:      eventID,
		Status:       ParticipationRegistered,
		RegisteredAt: registeredAt.UTC(),
	}, nil
}

// Validate checks the field invariants of the snapshot.
func (p Participation) Validate() error {
	if p.ID == "" || p.MemberID == "" || p.EventID == "" {
		return ErrEmptyID
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidParticipationStatus, p.Status)
	}
	if (p.PointsEarned != nil) != (p.Status == ParticipationCompleted) {
		return ErrPointsEarnedMismatch
	}
	if p.Rating != nil {
		if err := ValidateRating(*p.Rating); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRating accepts 1 to 5 stars.
func ValidateRating(r int) error {
	if r < 1 || r > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, r)
	}
	return nil
}

// Active is true for every status except Cancelled; at most one active
// participation may exist per member and event.
func (p Participation) Active() bool {
	return p.Status != ParticipationCancelled
}
