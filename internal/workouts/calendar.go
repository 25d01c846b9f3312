package workouts

import "time"

// NormalizeDate keeps only the UTC calendar day of t, at midnight UTC.
// A zero time stays zero.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns midnight UTC of the first day of the week containing t,
// weeks starting on the given weekday.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := NormalizeDate(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfDay is the last millisecond of the UTC day of t.
func EndOfDay(t time.Time) time.Time {
	return NormalizeDate(t).Add(24*time.Hour - time.Millisecond)
}
