package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"esg-engagement/models"
)

// IDGenerator returns a new participation identifier.
type IDGenerator func() (string, error)

func defaultID() (string, error) {
	return uuid.NewString(), nil
}

var transitions = map[models.ParticipationStatus][]models.ParticipationStatus{
	models.ParticipationRegistered: {models.ParticipationAttended, models.ParticipationMissed, models.ParticipationCancelled},
	models.ParticipationAttended:   {models.ParticipationCompleted},
}

// CanTransition reports whether a participation may move from one status to another.
func CanTransition(from, to models.ParticipationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsFull reports whether the event's capacity is reached.
func IsFull(event models.Event) bool {
	return event.IsFull()
}

// CanJoin reports whether the event accepts registrations at now.
func CanJoin(event models.Event, now time.Time) bool {
	return event.CanJoin(now)
}

// Register creates a Registered participation for member and returns the
// event with its participant counter incremented. existing holds the
// member's participations for this event, in any state.
func Register(member models.Member, event models.Event, existing []models.Participation, now time.Time, newID IDGenerator) (models.Participation, models.Event, error) {
	if strings.TrimSpace(member.ID) == "" {
		return models.Participation{}, event, newError(KindInvalidState, models.ErrEmptyID, "member")
	}
	if event.Status != models.EventStatusUpcoming {
		return models.Participation{}, event, newError(KindEventNotJoinable, nil, "event %s is %s", event.ID, event.Status)
	}
	if !event.StartsAt.After(now) {
		return models.Participation{}, event, newError(KindEventNotJoinable, nil, "event %s already started", event.ID)
	}
	for _, p := range existing {
		if p.MemberID == member.ID && p.EventID == event.ID && p.Active() {
			return models.Participation{}, event, newError(KindAlreadyRegistered, nil, "member %s already holds participation %s", member.ID, p.ID)
		}
	}
	if event.IsFull() {
		return models.Participation{}, event, newError(KindCapacityExceeded, nil, "event %s has %d/%d participants", event.ID, event.CurrentParticipants, *event.Capacity)
	}

	if newID == nil {
		newID = defaultID
	}
	id, err := newID()
	if err != nil {
		return models.Participation{}, event, newError(KindInvalidState, err, "generate participation id")
	}
	p, err := models.NewParticipation(id, member.ID, event.ID, now)
	if err != nil {
		return models.Participation{}, event, newError(KindInvalidState, err, "participation")
	}

	updated := event
	updated.CurrentParticipants++
	return p, updated, nil
}

// MarkAttended records attendance once the event has started.
func MarkAttended(p models.Participation, event models.Event, now time.Time) (models.Participation, error) {
	if err := guard(p, event, models.ParticipationAttended); err != nil {
		return p, err
	}
	if event.StartsAt.After(now) {
		return p, newError(KindInvalidTransition, nil, "event %s has not started", event.ID)
	}
	p.Status = models.ParticipationAttended
	return p, nil
}

// Complete scores an attended participation. On success both the
// participation and the member are returned updated; on failure both are
// returned as given.
func Complete(p models.Participation, member models.Member, event models.Event, rating *int, feedback *string, now time.Time) (models.Participation, models.Member, error) {
	if err := guard(p, event, models.ParticipationCompleted); err != nil {
		return p, member, err
	}
	if p.MemberID != member.ID {
		return p, member, newError(KindInvalidState, nil, "participation %s belongs to member %s, not %s", p.ID, p.MemberID, member.ID)
	}
	scored, err := ApplyCompletion(member, event, rating, now)
	if err != nil {
		return p, member, err
	}

	out := p
	points := event.PointValue
	completed := now.UTC()
	out.Status = models.ParticipationCompleted
	out.PointsEarned = &points
	out.CompletedAt = &completed
	if rating != nil {
		r := *rating
		out.Rating = &r
	}
	if feedback != nil {
		f := strings.TrimSpace(*feedback)
		out.Feedback = &f
	}
	return out, scored, nil
}

// MarkMissed closes a registration whose event passed without attendance.
func MarkMissed(p models.Participation, event models.Event, now time.Time) (models.Participation, error) {
	if err := guard(p, event, models.ParticipationMissed); err != nil {
		return p, err
	}
	if !event.HasPassed(now) {
		return p, newError(KindInvalidTransition, nil, "event %s has not passed", event.ID)
	}
	p.Status = models.ParticipationMissed
	return p, nil
}

// Cancel withdraws a registration and frees its seat.
func Cancel(p models.Participation, event models.Event, now time.Time) (models.Participation, models.Event, error) {
	if err := guard(p, event, models.ParticipationCancelled); err != nil {
		return p, event, err
	}
	if event.CurrentParticipants <= 0 {
		return p, event, newError(KindInvalidState, models.ErrParticipantsOverflow, "event %s has no participants to release", event.ID)
	}
	p.Status = models.ParticipationCancelled
	updated := event
	updated.CurrentParticipants--
	return p, updated, nil
}

func guard(p models.Participation, event models.Event, to models.ParticipationStatus) error {
	if p.EventID != event.ID {
		return newError(KindInvalidState, nil, "participation %s is for event %s, not %s", p.ID, p.EventID, event.ID)
	}
	if !CanTransition(p.Status, to) {
		return newError(KindInvalidTransition, nil, "participation %s: %s -> %s", p.ID, p.Status, to)
	}
	return nil
}
