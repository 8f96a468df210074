package engine

import (
	"time"

	"esg-engagement/models"
)

// ApplyCompletion credits the event's point value to the member's matching
// category, bumps the counters and advances the streak. The input member is
// not modified. Callers must only invoke it for a participation that is
// becoming Completed; the lifecycle enforces that.
func ApplyCompletion(member models.Member, event models.Event, rating *int, at time.Time) (models.Member, error) {
	if err := member.Validate(); err != nil {
		return member, newError(KindInvalidState, err, "member %s", member.ID)
	}
	if event.PointValue <= 0 {
		return member, newError(KindInvalidState, models.ErrNonPositivePoints, "event %s", event.ID)
	}
	if rating != nil {
		if err := models.ValidateRating(*rating); err != nil {
			return member, newError(KindInvalidState, err, "event %s", event.ID)
		}
	}

	out := member.Clone()
	delta := event.PointValue
	switch event.Category {
	case models.CategoryEnvironmental:
		out.EnvironmentalScore += delta
	case models.CategorySocial:
		out.SocialScore += delta
	case models.CategoryGovernance:
		out.GovernanceScore += delta
	default:
		return member, newError(KindInvalidState, models.ErrInvalidCategory, "event %s has category %q", event.ID, event.Category)
	}
	out.TotalScore = out.EnvironmentalScore + out.SocialScore + out.GovernanceScore
	out.EventsCompleted++
	out.EventsAttended++

	out.CurrentStreak, out.LongestStreak = NextStreak(member.CurrentStreak, member.LongestStreak, member.LastCompletionAt, at)
	completed := at.UTC()
	out.LastCompletionAt = &completed
	return out, nil
}

// RevisePointValue changes an event's point value. Published events keep
// their value so every completion of the same event is worth the same.
func RevisePointValue(event models.Event, points int64) (models.Event, error) {
	if event.IsPublished() {
		return event, newError(KindInvalidState, nil, "event %s is published; point value is frozen", event.ID)
	}
	if points <= 0 {
		return event, newError(KindInvalidState, models.ErrNonPositivePoints, "event %s", event.ID)
	}
	event.PointValue = points
	return event, nil
}

// Publish freezes the event's point value at now.
func Publish(event models.Event, now time.Time) (models.Event, error) {
	if event.IsPublished() {
		return event, newError(KindInvalidState, nil, "event %s already published", event.ID)
	}
	if err := event.Validate(); err != nil {
		return event, newError(KindInvalidState, err, "event %s", event.ID)
	}
	at := now.UTC()
	event.PublishedAt = &at
	return event, nil
}
