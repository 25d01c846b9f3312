package workouts

import (
	"errors"
	"fmt"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// InvalidRecordError is returned when a workout record (or a form that
// should become one) cannot be used as is, e.g. it has no date.
type InvalidRecordError struct {
	WorkoutID string
	Reason    string
}

func (e *InvalidRecordError) Error() string {
	if e.WorkoutID == "" {
		return fmt.Sprintf("invalid workout record: %s", e.Reason)
	}
	return fmt.Sprintf("invalid workout record [%s]: %s", e.WorkoutID, e.Reason)
}

// InvalidParameterError is returned for unknown timeframe/metric values
// and other query parameters that have no sensible default.
type InvalidParameterError struct {
	Param string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: [%s]", e.Param, e.Value)
}

func IsInvalidRecord(err error) bool {
	var target *InvalidRecordError
	return errors.As(err, &target)
}

func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}
