package models

import (
	"fmt"
	"strings"
	"time"
)

// Event is a categorized activity published by an organizer.
type Event struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	Title        string      `json:"title" gorm:"not null"`
	Description  string      `json:"description"`
	Category     Category    `json:"category" gorm:"type:varchar(16);not null;index"`
	StartsAt     time.Time   `json:"date" gorm:"not null;index"`
	EndsAt       *time.Time  `json:"end_date,omitempty"`
	PointValue   int64       `json:"points" gorm:"not null"`
	Status       EventStatus `json:"status" gorm:"type:varchar(16);default:'Upcoming';index"`
	Location     *string     `json:"location,omitempty"`
	Organizer    *string     `json:"organizer,omitempty"`
	ImageURL     *string     `json:"image_url,omitempty"`
	Requirements *string     `json:"requirements,omitempty"`
	IsOnline     bool        `json:"is_online" gorm:"default:false"`
	Tags         []string    `json:"tags" gorm:"serializer:json"`

	// Capacity
	Capacity            *int64 `json:"max_participants,omitempty" gorm:"column:max_participants"`
	CurrentParticipants int64  `json:"current_participants" gorm:"default:0"`

	// Point value is frozen once set
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewEventInput describes an event as an organizer submits it.
type NewEventInput struct {
	ID           string
	Title        string
	Description  string
	Category     Category
	StartsAt     time.Time
	EndsAt       *time.Time
	PointValue   int64
	Capacity     *int64
	Location     *string
	Organizer    *string
	ImageURL     *string
	Requirements *string
	IsOnline     bool
	Tags         []string
}

// NewEvent validates input and returns an upcoming, unpublished event.
func NewEvent(input NewEventInput) (Event, error) {
	e := Event{
		ID:           strings.TrimSpace(input.ID),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Category:     input.Category,
		StartsAt:     input.StartsAt.UTC(),
		EndsAt:       input.EndsAt,
		PointValue:   input.PointValue,
		Status:       EventStatusUpcoming,
		Location:     input.Location,
		Organizer:    input.Organizer,
		ImageURL:     input.ImageURL,
		Requirements: input.Requirements,
		IsOnline:     input.IsOnline,
		Tags:         input.Tags,
		Capacity:     input.Capacity,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Validate checks the field invariants of the snapshot.
func (e Event) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventStatus, e.Status)
	}
	if e.PointValue <= 0 {
		return ErrNonPositivePoints
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return ErrEventWindow
	}
	if e.Capacity != nil && *e.Capacity < 0 {
		return ErrNegativeCapacity
	}
	if e.CurrentParticipants < 0 || (e.Capacity != nil && e.CurrentParticipants > *e.Capacity) {
		return ErrParticipantsOverflow
	}
	return nil
}

// SameAs compares events by identifier.
func (e Event) SameAs(other Event) bool {
	return e.ID == other.ID
}

// IsFull is true when a capacity is set and reached. Uncapped events are never full.
func (e Event) IsFull() bool {
	if e.Capacity == nil {
		return false
	}
	return e.CurrentParticipants >= *e.Capacity
}

// CanJoin reports whether a new registration is acceptable at now.
func (e Event) CanJoin(now time.Time) bool {
	return e.Status == EventStatusUpcoming && !e.IsFull() && e.StartsAt.After(now)
}

// Remaining returns open seats, or -1 for uncapped events.
func (e Event) Remaining() int64 {
	if e.Capacity == nil {
		return -1
	}
	if r := *e.Capacity - e.CurrentParticipants; r > 0 {
		return r
	}
	return 0
}

// HasPassed reports whether the event is over at now: after its end when
// one is set, otherwise after its start.
func (e Event) HasPassed(now time.Time) bool {
	if e.EndsAt != nil {
		return now.After(*e.EndsAt)
	}
	return now.After(e.StartsAt)
}

// IsPublished reports whether the point value is frozen.
func (e Event) IsPublished() bool {
	return e.PublishedAt != nil
}

// TimeUntil renders the countdown clients show on event cards.
func (e Event) TimeUntil(now time.Time) string {
	d := e.StartsAt.Sub(now)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	switch {
	case days > 0:
		return fmt.Sprintf("%d day(s)", days)
	case hours > 0:
		return fmt.Sprintf("%d hour(s)", hours)
	default:
		return "Starting soon"
	}
}
