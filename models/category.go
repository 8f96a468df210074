package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Category is one of the three fixed engagement dimensions.
type Category string

const (
	CategoryEnvironmental Category = "Environmental"
	CategorySocial        Category = "Social"
	CategoryGovernance    Category = "Governance"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryEnvironmental, CategorySocial, CategoryGovernance}

// CategoryStyle is the presentation hint clients render for a category.
type CategoryStyle struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Adding a category means extending this table; there is no fallback style.
var categoryStyles = map[Category]CategoryStyle{
	CategoryEnvironmental: {Color: "greenPrimary", Icon: "leaf.fill"},
	CategorySocial:        {Color: "bluePrimary", Icon: "person.3.fill"},
	CategoryGovernance:    {Color: "purplePrimary", Icon: "building.columns.fill"},
}

func (c Category) Valid() bool {
	_, ok := categoryStyles[c]
	return ok
}

// Style returns the color/icon pair for c.
func (c Category) Style() (CategoryStyle, bool) {
	s, ok := categoryStyles[c]
	return s, ok
}

var folder = cases.Fold()

// ParseCategory matches s against the category names ignoring case.
func ParseCategory(s string) (Category, error) {
	want := folder.String(strings.TrimSpace(s))
	for _, c := range Categories {
		if folder.String(string(c)) == want {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// EventStatus is the organizer-facing lifecycle of an event.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "Upcoming"
	EventStatusOngoing   EventStatus = "Ongoing"
	EventStatusCompleted EventStatus = "Completed"
	EventStatusCancelled EventStatus = "Cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// ParticipationStatus is the state of one member's participation in one event.
type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "Registered"
	ParticipationAttended   ParticipationStatus = "Attended"
	ParticipationCompleted  ParticipationStatus = "Completed"
	ParticipationMissed     ParticipationStatus = "Missed"
	ParticipationCancelled  ParticipationStatus = "Cancelled"
)

func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationRegistered, ParticipationAttended, ParticipationCompleted,
		ParticipationMissed, ParticipationCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s ParticipationStatus) Terminal() bool {
	return s == ParticipationCompleted || s == ParticipationMissed || s == ParticipationCancelled
}

// BadgeType groups badges; the three category types compare the matching
// category score, the others compare the total score.
type BadgeType string

const (
	BadgeTypeEnvironmental BadgeType = "Environmental"
	BadgeTypeSocial        BadgeType = "Social"
	BadgeTypeGovernance    BadgeType = "Governance"
	BadgeTypeSpecial       BadgeType = "Special"
	BadgeTypeMilestone     BadgeType = "Milestone"
)

var badgeTypeCategories = map[BadgeType]Category{
	BadgeTypeEnvironmental: CategoryEnvironmental,
	BadgeTypeSocial:        CategorySocial,
	BadgeTypeGovernance:    CategoryGovernance,
}

func (t BadgeType) Valid() bool {
	switch t {
	case BadgeTypeEnvironmental, BadgeTypeSocial, BadgeTypeGovernance, BadgeTypeSpecial, BadgeTypeMilestone:
		return true
	}
	return false
}

// Category returns the score bucket a category badge is measured against.
func (t BadgeType) Category() (Category, bool) {
	c, ok := badgeTypeCategories[t]
	return c, ok
}
