// Package summary computes the dashboard KPIs (done workouts, distance run)
// over a relative time window.
package summary

import (
	"strings"
	"time"

	"github.com/2beens/workoutlog/internal/workouts"
)

type Timeframe string

const (
	TimeframeAll   Timeframe = "ALL"
	TimeframeYear  Timeframe = "YEAR"
	TimeframeMonth Timeframe = "MONTH"
	TimeframeWeek  Timeframe = "WEEK"
)

var Timeframes = []Timeframe{TimeframeAll, TimeframeYear, TimeframeMonth, TimeframeWeek}

func (tf Timeframe) IsValid() bool {
	switch tf {
	case TimeframeAll, TimeframeYear, TimeframeMonth, TimeframeWeek:
		return true
	default:
		return false
	}
}

type Metric string

const (
	MetricCountCompleted Metric = "COUNT_COMPLETED"
	MetricSumDistance    Metric = "SUM_DISTANCE"
)

var Metrics = []Metric{MetricCountCompleted, MetricSumDistance}

func (m Metric) IsValid() bool {
	switch m {
	case MetricCountCompleted, MetricSumDistance:
		return true
	default:
		return false
	}
}

// ParseTimeframe accepts the canonical names (case-insensitive) and
// the short dashboard names: total, year, month, week.
func ParseTimeframe(s string) (Timeframe, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "TOTAL" {
		return TimeframeAll, nil
	}
	tf := Timeframe(v)
	if !tf.IsValid() {
		return "", &workouts.InvalidParameterError{Param: "timeframe", Value: s}
	}
	return tf, nil
}

// ParseMetric accepts the canonical names (case-insensitive) and
// the short dashboard names: workouts, distance.
func ParseMetric(s string) (Metric, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "WORKOUTS":
		return MetricCountCompleted, nil
	case "DISTANCE":
		return MetricSumDistance, nil
	}
	m := Metric(v)
	if !m.IsValid() {
		return "", &workouts.InvalidParameterError{Param: "metric", Value: s}
	}
	return m, nil
}

// the dashboard week runs Sunday to Saturday, unlike the Monday-started timeline weeks
const weekStartsOn = time.Sunday

// TimeWindow is an inclusive [Start, End] range. Bounded is false for TimeframeAll.
type TimeWindow struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Bounded bool      `json:"bounded"`
}

func (tw TimeWindow) Contains(t time.Time) bool {
	if !tw.Bounded {
		return true
	}
	return !t.Before(tw.Start) && !t.After(tw.End)
}

// Window resolves the timeframe relative to now, in UTC.
func Window(tf Timeframe, now time.Time) (TimeWindow, error) {
	now = now.UTC()
	switch tf {
	case TimeframeAll:
		return TimeWindow{}, nil
	case TimeframeYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := workouts.EndOfDay(time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC))
		return TimeWindow{Start: start, End: end, Bounded: true}, nil
	case TimeframeMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		// day 0 of the next month is the last day of this one
		lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		return TimeWindow{Start: start, End: workouts.EndOfDay(lastDay), Bounded: true}, nil
	case TimeframeWeek:
		start := workouts.StartOfWeek(now, weekStartsOn)
		end := workouts.EndOfDay(start.AddDate(0, 0, 6))
		return TimeWindow{Start: start, End: end, Bounded: true}, nil
	default:
		return TimeWindow{}, &workouts.InvalidParameterError{Param: "timeframe", Value: string(tf)}
	}
}

// Aggregate computes the metric over the COMPLETED workouts inside the
// timeframe window. Missing distances count as 0 in the sum.
func Aggregate(ws []workouts.Workout, tf Timeframe, metric Metric, now time.Time) (float64, error) {
	if !metric.IsValid() {
		return 0, &workouts.InvalidParameterError{Param: "metric", Value: string(metric)}
	}
	window, err := Window(tf, now)
	if err != nil {
		return 0, err
	}

	var count int
	var distance float64
	for _, w := range ws {
		if !w.IsCompleted() {
			continue
		}
		if window.Bounded && !window.Contains(workouts.NormalizeDate(w.Date)) {
			continue
		}
		count++
		distance += w.DistanceKm()
	}

	if metric == MetricSumDistance {
		return distance, nil
	}
	return float64(count), nil
}
