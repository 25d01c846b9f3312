package workouts

import "time"

// Workout (DB level type) is a single planned or done training day entry:
//   - a run (distance, time and pace, planned and actual)
//   - a weight training session (list of exercises with their sets)
//   - a rest day
//
// Fields that belong to one activity type can still hold stale values after
// the type of the workout was changed, so readers should not rely on them
// being empty for other types.
type Workout struct {
	ID     string       `json:"id"`
	Date   time.Time    `json:"date"`
	Type   ActivityType `json:"type"`
	Status Status       `json:"status"`

	PlannedDistanceKm *float64 `json:"plannedDistanceKm"`
	ActualDistanceKm  *float64 `json:"actualDistanceKm"`
	PlannedTimeMin    *int     `json:"plannedTimeMin"`
	ActualTimeMin     *int     `json:"actualTimeMin"`
	PlannedPace       *string  `json:"plannedPace"`
	ActualPace        *string  `json:"actualPace"`
	Description       *string  `json:"description"`

	Exercises []Exercise `json:"exercises"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets string `json:"sets"`
}

func (w Workout) IsCompleted() bool {
	return w.Status == StatusCompleted
}

// DistanceKm returns the actual distance, with a missing value counted as 0.
// Only meant for summing, display code should show a placeholder instead.
func (w Workout) DistanceKm() float64 {
	if w.ActualDistanceKm == nil {
		return 0
	}
	return *w.ActualDistanceKm
}

// ClearRunFields drops the distance, time and pace values, which only
// belong to runs.
func (w *Workout) ClearRunFields() {
	w.PlannedDistanceKm = nil
	w.ActualDistanceKm = nil
	w.PlannedTimeMin = nil
	w.ActualTimeMin = nil
	w.PlannedPace = nil
	w.ActualPace = nil
}

// ActivityType can be one of:
//   - RUN
//   - WEIGHT_TRAINING
//   - REST
type ActivityType string

const (
	ActivityTypeRun            ActivityType = "RUN"
	ActivityTypeWeightTraining ActivityType = "WEIGHT_TRAINING"
	ActivityTypeRest           ActivityType = "REST"
)

func (at ActivityType) String() string {
	return string(at)
}

func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityTypeRun,
		ActivityTypeWeightTraining,
		ActivityTypeRest:
		return true
	default:
		return false
	}
}

// Status can be one of:
//   - PENDING
//   - COMPLETED
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}
