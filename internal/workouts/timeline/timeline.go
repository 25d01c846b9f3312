// Package timeline groups workouts into months and weeks for the history view.
package timeline

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/2beens/workoutlog/internal/workouts"

	"github.com/goodsign/monday"
)

// weeks in the timeline start on Monday (the dashboard cards use Sunday, see summary package)
const weekStartsOn = time.Monday

const DefaultLocale = monday.LocalePtBR

type WeekBucket struct {
	// WeekKey is the week start date as YYYY-MM-DD, used for grouping only
	WeekKey       string    `json:"weekKey"`
	WeekStartDate time.Time `json:"weekStartDate"`
	// WeekStart is the display label of the week start, e.g. "seg, 1 de dezembro"
	WeekStart  string             `json:"weekStart"`
	WeekNumber int                `json:"weekNumber"`
	Workouts   []workouts.Workout `json:"workouts"`
}

type MonthBucket struct {
	MonthKey  string       `json:"monthKey"`
	MonthName string       `json:"monthName"`
	Weeks     []WeekBucket `json:"weeks"`
}

type layouts struct {
	month string
	week  string
}

var localeLayouts = map[monday.Locale]layouts{
	monday.LocalePtBR: {month: "January de 2006", week: "Mon, 2 de January"},
	monday.LocalePtPT: {month: "January de 2006", week: "Mon, 2 de January"},
	monday.LocaleEsES: {month: "January de 2006", week: "Mon, 2 de January"},
}

var defaultLayouts = layouts{month: "January 2006", week: "Mon, 2 January"}

type Grouper struct {
	locale  monday.Locale
	layouts layouts
}

func NewGrouper(locale monday.Locale) *Grouper {
	if locale == "" {
		locale = DefaultLocale
	}
	l, ok := localeLayouts[locale]
	if !ok {
		l = defaultLayouts
	}
	return &Grouper{
		locale:  locale,
		layouts: l,
	}
}

var defaultGrouper = NewGrouper(DefaultLocale)

// Group uses the default (pt_BR) display locale.
func Group(ws []workouts.Workout) ([]MonthBucket, error) {
	return defaultGrouper.Group(ws)
}

// Group buckets the workouts by UTC month, and inside each month by the
// Monday-started week. Months come most recent first, weeks inside a month
// most recent first, and workouts inside a week in ascending date order.
// The input slice is not modified.
func (g *Grouper) Group(ws []workouts.Workout) ([]MonthBucket, error) {
	type monthAcc struct {
		bucket MonthBucket
		weeks  map[string]int
	}

	months := make(map[string]*monthAcc)
	for _, w := range ws {
		if w.Date.IsZero() {
			return nil, &workouts.InvalidRecordError{WorkoutID: w.ID, Reason: "missing date"}
		}

		day := workouts.NormalizeDate(w.Date)
		monthKey := MonthKey(day)
		weekStart := workouts.StartOfWeek(day, weekStartsOn)
		weekKey := weekStart.Format(time.DateOnly)

		m, ok := months[monthKey]
		if !ok {
			m = &monthAcc{
				bucket: MonthBucket{
					MonthKey:  monthKey,
					MonthName: g.MonthName(day),
				},
				weeks: make(map[string]int),
			}
			months[monthKey] = m
		}

		idx, ok := m.weeks[weekKey]
		if !ok {
			m.bucket.Weeks = append(m.bucket.Weeks, WeekBucket{
				WeekKey:       weekKey,
				WeekStartDate: weekStart,
				WeekStart:     g.WeekLabel(weekStart),
				WeekNumber:    WeekNumber(day),
			})
			idx = len(m.bucket.Weeks) - 1
			m.weeks[weekKey] = idx
		}
		m.bucket.Weeks[idx].Workouts = append(m.bucket.Weeks[idx].Workouts, w)
	}

	result := make([]MonthBucket, 0, len(months))
	for _, m := range months {
		month := m.bucket
		// weeks of one month never overlap, so ordering by week start gives the
		// same order as comparing any workout of each week
		slices.SortFunc(month.Weeks, func(a, b WeekBucket) int {
			return b.WeekStartDate.Compare(a.WeekStartDate)
		})
		for i := range month.Weeks {
			slices.SortStableFunc(month.Weeks[i].Workouts, func(a, b workouts.Workout) int {
				return workouts.NormalizeDate(a.Date).Compare(workouts.NormalizeDate(b.Date))
			})
		}
		result = append(result, month)
	}

	// YYYY-MM is fixed width, plain string compare is enough
	slices.SortFunc(result, func(a, b MonthBucket) int {
		return strings.Compare(b.MonthKey, a.MonthKey)
	})

	return result, nil
}

// MonthName is the capitalized, locale formatted month, e.g. "Dezembro de 2025".
func (g *Grouper) MonthName(day time.Time) string {
	return capitalize(monday.Format(day, g.layouts.month, g.locale))
}

func (g *Grouper) WeekLabel(weekStart time.Time) string {
	return monday.Format(weekStart, g.layouts.week, g.locale)
}

func MonthKey(day time.Time) string {
	u := day.UTC()
	return fmt.Sprintf("%04d-%02d", u.Year(), int(u.Month()))
}

// WeekNumber is the ISO 8601 week of the year of the UTC day of t. Days in
// late December can belong to week 1 of the next year, and days in early
// January to week 52/53 of the previous one.
func WeekNumber(t time.Time) int {
	_, week := workouts.NormalizeDate(t).ISOWeek()
	return week
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
