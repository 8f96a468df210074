package models

import "errors"

var (
	ErrEmptyID          = errors.New("identifier is required")
	ErrEmptyDisplayName = errors.New("display name is required")
	ErrNegativeScore    = errors.New("scores must be non-negative")
	ErrScoreMismatch    = errors.New("total score must equal the sum of category scores")
	ErrNegativeCounter  = errors.New("counters must be non-negative")
	ErrStreakInvariant  = errors.New("longest streak must be at least the current streak")
	ErrDuplicateBadge   = errors.New("badge unlocked more than once")

	ErrInvalidCategory      = errors.New("unknown category")
	ErrInvalidEventStatus   = errors.New("unknown event status")
	ErrNonPositivePoints    = errors.New("point value must be positive")
	ErrNegativeCapacity     = errors.New("capacity must be non-negative")
	ErrParticipantsOverflow = errors.New("current participants must be between zero and capacity")
	ErrEventWindow          = errors.New("event end must not precede its start")

	ErrInvalidParticipationStatus = errors.New("unknown participation status")
	ErrInvalidRating              = errors.New("rating must be between 1 and 5")
	ErrPointsEarnedMismatch       = errors.New("points earned is set only on completed participations")

	ErrInvalidCatalog = errors.New("invalid catalog")
)
