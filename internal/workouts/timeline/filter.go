package timeline

import (
	"slices"

	"github.com/2beens/workoutlog/internal/workouts"
)

// Filter keeps the workouts of the given UTC year and month.
// Zero year or month means no filtering on that component.
// Workouts without a date are kept, so Group can report them.
func Filter(ws []workouts.Workout, year, month int) []workouts.Workout {
	if year == 0 && month == 0 {
		return ws
	}

	filtered := make([]workouts.Workout, 0, len(ws))
	for _, w := range ws {
		if w.Date.IsZero() {
			filtered = append(filtered, w)
			continue
		}
		day := workouts.NormalizeDate(w.Date)
		if year != 0 && day.Year() != year {
			continue
		}
		if month != 0 && int(day.Month()) != month {
			continue
		}
		filtered = append(filtered, w)
	}
	return filtered
}

// Years returns the distinct UTC years found in the workouts, most recent first.
func Years(ws []workouts.Workout) []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, w := range ws {
		if w.Date.IsZero() {
			continue
		}
		y := w.Date.UTC().Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}
