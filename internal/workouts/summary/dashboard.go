package summary

import (
	"strconv"
	"time"

	"github.com/2beens/workoutlog/internal/workouts"
)

// Card is one KPI tile of the dashboard.
type Card struct {
	Timeframe    Timeframe  `json:"timeframe"`
	Metric       Metric     `json:"metric"`
	Value        float64    `json:"value"`
	DisplayValue string     `json:"displayValue"`
	Unit         string     `json:"unit"`
	Window       TimeWindow `json:"window"`
}

// NewCard fills the display value and unit for an aggregated value.
func NewCard(tf Timeframe, metric Metric, value float64, window TimeWindow) Card {
	return Card{
		Timeframe:    tf,
		Metric:       metric,
		Value:        value,
		DisplayValue: FormatValue(metric, value),
		Unit:         Unit(metric),
		Window:       window,
	}
}

// Dashboard computes a card for every timeframe and metric combination.
func Dashboard(ws []workouts.Workout, now time.Time) ([]Card, error) {
	cards := make([]Card, 0, len(Timeframes)*len(Metrics))
	for _, metric := range Metrics {
		for _, tf := range Timeframes {
			value, err := Aggregate(ws, tf, metric, now)
			if err != nil {
				return nil, err
			}
			window, err := Window(tf, now)
			if err != nil {
				return nil, err
			}
			cards = append(cards, NewCard(tf, metric, value, window))
		}
	}
	return cards, nil
}

// FormatValue renders distances with one decimal, counts as integers.
func FormatValue(metric Metric, value float64) string {
	if metric == MetricSumDistance {
		return strconv.FormatFloat(value, 'f', 1, 64)
	}
	return strconv.FormatInt(int64(value), 10)
}

func Unit(metric Metric) string {
	if metric == MetricSumDistance {
		return "km"
	}
	return ""
}
