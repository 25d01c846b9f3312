// Package form maps between the persisted workout and the editable form
// state (all text fields), for the create and edit flows.
package form

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/workoutlog/internal/workouts"
)

// FormState is what the workout form edits: everything is text,
// the date is YYYY-MM-DD.
type FormState struct {
	Date              string                `json:"date"`
	Type              workouts.ActivityType `json:"type"`
	Status            workouts.Status       `json:"status"`
	PlannedDistanceKm string                `json:"plannedDistanceKm"`
	ActualDistanceKm  string                `json:"actualDistanceKm"`
	PlannedTimeMin    string                `json:"plannedTimeMin"`
	ActualTimeMin     string                `json:"actualTimeMin"`
	PlannedPace       string                `json:"plannedPace"`
	ActualPace        string                `json:"actualPace"`
	Description       string                `json:"description"`
	WeightExercises   []ExerciseRow         `json:"weightExercises"`
}

type ExerciseRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets string `json:"sets"`
}

func emptyExercises() []ExerciseRow {
	return []ExerciseRow{{}}
}

// NewFormState is the blank form of a new workout, dated today (UTC).
func NewFormState(now time.Time) FormState {
	return FormState{
		Date:            now.UTC().Format(time.DateOnly),
		Type:            workouts.ActivityTypeRun,
		Status:          workouts.StatusPending,
		WeightExercises: emptyExercises(),
	}
}

// ToFormState turns a stored workout into the form state used to edit it.
func ToFormState(w workouts.Workout) FormState {
	f := FormState{
		Type:              w.Type,
		Status:            w.Status,
		PlannedDistanceKm: formatFloat(w.PlannedDistanceKm),
		ActualDistanceKm:  formatFloat(w.ActualDistanceKm),
		PlannedTimeMin:    formatInt(w.PlannedTimeMin),
		ActualTimeMin:     formatInt(w.ActualTimeMin),
		PlannedPace:       deref(w.PlannedPace),
		ActualPace:        deref(w.ActualPace),
		Description:       deref(w.Description),
	}
	if !w.Date.IsZero() {
		f.Date = workouts.NormalizeDate(w.Date).Format(time.DateOnly)
	}

	if len(w.Exercises) == 0 {
		f.WeightExercises = emptyExercises()
	} else {
		f.WeightExercises = make([]ExerciseRow, 0, len(w.Exercises))
		for _, ex := range w.Exercises {
			f.WeightExercises = append(f.WeightExercises, ExerciseRow{ID: ex.ID, Name: ex.Name, Sets: ex.Sets})
		}
	}

	return f
}

// ToPersistedShape turns a submitted form into a workout ready to be stored.
// ID and timestamps are left for the store to fill.
func ToPersistedShape(f FormState) (workouts.Workout, error) {
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(f.Date), time.UTC)
	if err != nil {
		return workouts.Workout{}, &workouts.InvalidRecordError{Reason: "date must be YYYY-MM-DD"}
	}

	plannedDistance, err := parseFloat("plannedDistanceKm", f.PlannedDistanceKm)
	if err != nil {
		return workouts.Workout{}, err
	}
	actualDistance, err := parseFloat("actualDistanceKm", f.ActualDistanceKm)
	if err != nil {
		return workouts.Workout{}, err
	}
	plannedTime, err := parseInt("plannedTimeMin", f.PlannedTimeMin)
	if err != nil {
		return workouts.Workout{}, err
	}
	actualTime, err := parseInt("actualTimeMin", f.ActualTimeMin)
	if err != nil {
		return workouts.Workout{}, err
	}

	w := workouts.Workout{
		Date:              date,
		Type:              f.Type,
		Status:            f.Status,
		PlannedDistanceKm: plannedDistance,
		ActualDistanceKm:  actualDistance,
		PlannedTimeMin:    plannedTime,
		ActualTimeMin:     actualTime,
		PlannedPace:       optional(f.PlannedPace),
		ActualPace:        optional(f.ActualPace),
		Description:       optional(f.Description),
		Exercises:         []workouts.Exercise{},
	}

	// same rule as ChangeType
	if f.Type != workouts.ActivityTypeRun {
		w.ClearRunFields()
	}

	if f.Type == workouts.ActivityTypeWeightTraining {
		for _, row := range f.WeightExercises {
			name := strings.TrimSpace(row.Name)
			sets := strings.TrimSpace(row.Sets)
			if name == "" || sets == "" {
				continue
			}
			w.Exercises = append(w.Exercises, workouts.Exercise{ID: row.ID, Name: name, Sets: sets})
		}
	}

	return w, nil
}

// ChangeType switches the activity type, clearing the fields that do not
// belong to the new type.
func ChangeType(f FormState, newType workouts.ActivityType) FormState {
	f.Type = newType
	if newType != workouts.ActivityTypeRun {
		f.PlannedDistanceKm = ""
		f.ActualDistanceKm = ""
		f.PlannedTimeMin = ""
		f.ActualTimeMin = ""
		f.PlannedPace = ""
		f.ActualPace = ""
	}
	if newType != workouts.ActivityTypeWeightTraining {
		f.WeightExercises = emptyExercises()
	}
	return f
}

// Validate checks the form before submitting. A completed run needs the
// actual distance.
func Validate(f FormState) error {
	if strings.TrimSpace(f.Date) == "" || f.Type == "" {
		return &workouts.InvalidRecordError{Reason: "date and activity type are required"}
	}
	if !f.Type.IsValid() {
		return &workouts.InvalidRecordError{Reason: "unknown activity type: " + f.Type.String()}
	}
	if !f.Status.IsValid() {
		return &workouts.InvalidRecordError{Reason: "unknown status: " + f.Status.String()}
	}
	if f.Status == workouts.StatusCompleted && f.Type == workouts.ActivityTypeRun &&
		strings.TrimSpace(f.ActualDistanceKm) == "" {
		return &workouts.InvalidRecordError{Reason: "a completed run must have the actual distance set"}
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &workouts.InvalidRecordError{Reason: field + " must be a non-negative number"}
	}
	return &v, nil
}

func parseInt(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil, &workouts.InvalidRecordError{Reason: field + " must be a non-negative integer"}
	}
	return &v, nil
}
