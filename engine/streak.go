package engine

import "time"

// weekStart returns Monday 00:00 UTC of the ISO week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, time.UTC)
}

// WeekStart exposes the streak window boundary for callers that bucket by week.
func WeekStart(t time.Time) time.Time {
	return weekStart(t)
}

// NextStreak computes the streak counters after a completion at at.
// Windows are calendar weeks starting Monday 00:00 UTC: another completion in
// the same week keeps the streak, one in the following week extends it, and
// anything else starts over at 1.
func NextStreak(current, longest int64, last *time.Time, at time.Time) (int64, int64) {
	next := int64(1)
	if last != nil {
		prev := weekStart(*last)
		cur := weekStart(at)
		switch {
		case cur.Equal(prev):
			next = max(current, 1)
		case cur.Equal(prev.AddDate(0, 0, 7)):
			next = current + 1
		}
	}
	return next, max(longest, next)
}
