package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/workoutlog/internal/cache"
	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workouts"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=store_test

type workoutsRepo interface {
	Create(ctx context.Context, workout workouts.Workout) (*workouts.Workout, error)
	Update(ctx context.Context, workout workouts.Workout) (*workouts.Workout, error)
	Delete(ctx context.Context, id string) (*workouts.Workout, error)
	Get(ctx context.Context, id string) (*workouts.Workout, error)
	List(ctx context.Context, params ListParams) ([]workouts.Workout, error)
}

// ErrorKind tells the presentation layer what went wrong, without the details.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindInvalid
	ErrorKindNotFound
	ErrorKindInternal
)

// Result is what every Service operation returns. Error holds a message
// that can be shown to the user as is.
type Result[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"-"`
}

const (
	msgNotFound    = "Treino não encontrado."
	msgSaveFailed  = "Erro ao salvar o treino."
	msgUpdateFail  = "Erro ao atualizar o treino."
	msgDeleteFail  = "Ocorreu um erro ao excluir o treino."
	msgLoadFailed  = "Erro ao carregar os treinos."
	msgMissingID   = "ID do treino não encontrado."
	writeOpCreate  = "create"
	writeOpUpdate  = "update"
	writeOpDelete  = "delete"
	writeResultOK  = "ok"
	writeResultErr = "error"
)

type Service struct {
	repo           workoutsRepo
	viewCache      cache.Cache
	metricsManager *metrics.Manager
}

func NewService(repo workoutsRepo, viewCache cache.Cache, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		viewCache:      viewCache,
		metricsManager: metricsManager,
	}
}

func (s *Service) Create(ctx context.Context, workout workouts.Workout) (res Result[*workouts.Workout]) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, res.err())
	}()

	if err := validateRecord(workout); err != nil {
		return failure[*workouts.Workout](ErrorKindInvalid, err.Error())
	}

	created, err := s.repo.Create(ctx, workout)
	s.afterWrite(writeOpCreate, err)
	if err != nil {
		log.Errorf("create workout: %s", err)
		return failure[*workouts.Workout](ErrorKindInternal, msgSaveFailed)
	}

	return success(created)
}

func (s *Service) Update(ctx context.Context, workout workouts.Workout) (res Result[*workouts.Workout]) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, res.err())
	}()

	if workout.ID == "" {
		return failure[*workouts.Workout](ErrorKindInvalid, msgMissingID)
	}
	if err := validateRecord(workout); err != nil {
		return failure[*workouts.Workout](ErrorKindInvalid, err.Error())
	}

	updated, err := s.repo.Update(ctx, workout)
	s.afterWrite(writeOpUpdate, err)
	if err != nil {
		if errors.Is(err, workouts.ErrWorkoutNotFound) {
			return failure[*workouts.Workout](ErrorKindNotFound, msgNotFound)
		}
		log.Errorf("update workout [%s]: %s", workout.ID, err)
		return failure[*workouts.Workout](ErrorKindInternal, msgUpdateFail)
	}

	return success(updated)
}

func (s *Service) Delete(ctx context.Context, id string) (res Result[*workouts.Workout]) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, res.err())
	}()

	if id == "" {
		return failure[*workouts.Workout](ErrorKindInvalid, msgMissingID)
	}

	deleted, err := s.repo.Delete(ctx, id)
	s.afterWrite(writeOpDelete, err)
	if err != nil {
		if errors.Is(err, workouts.ErrWorkoutNotFound) {
			return failure[*workouts.Workout](ErrorKindNotFound, msgNotFound)
		}
		log.Errorf("delete workout [%s]: %s", id, err)
		return failure[*workouts.Workout](ErrorKindInternal, msgDeleteFail)
	}

	return success(deleted)
}

func (s *Service) Get(ctx context.Context, id string) (res Result[*workouts.Workout]) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, res.err())
	}()

	workout, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, workouts.ErrWorkoutNotFound) {
			return failure[*workouts.Workout](ErrorKindNotFound, msgNotFound)
		}
		log.Errorf("get workout [%s]: %s", id, err)
		return failure[*workouts.Workout](ErrorKindInternal, msgLoadFailed)
	}

	return success(workout)
}

func (s *Service) List(ctx context.Context, params ListParams) (res Result[[]workouts.Workout]) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, res.err())
	}()

	if params.Type != "" && !params.Type.IsValid() {
		return failure[[]workouts.Workout](ErrorKindInvalid, (&workouts.InvalidParameterError{
			Param: "type", Value: params.Type.String(),
		}).Error())
	}
	if params.Status != "" && !params.Status.IsValid() {
		return failure[[]workouts.Workout](ErrorKindInvalid, (&workouts.InvalidParameterError{
			Param: "status", Value: params.Status.String(),
		}).Error())
	}

	list, err := s.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list workouts: %s", err)
		return failure[[]workouts.Workout](ErrorKindInternal, msgLoadFailed)
	}

	return success(list)
}

// All returns the full snapshot the timeline and dashboard are computed from.
func (s *Service) All(ctx context.Context) Result[[]workouts.Workout] {
	return s.List(ctx, ListParams{})
}

func (s *Service) afterWrite(op string, err error) {
	result := writeResultOK
	if err != nil {
		result = writeResultErr
	} else if s.viewCache != nil {
		s.viewCache.Clear()
	}
	if s.metricsManager != nil {
		s.metricsManager.CounterWorkoutWrites.WithLabelValues(op, result).Inc()
	}
}

func validateRecord(w workouts.Workout) error {
	switch {
	case w.Date.IsZero():
		return &workouts.InvalidRecordError{WorkoutID: w.ID, Reason: "missing date"}
	case !w.Type.IsValid():
		return &workouts.InvalidRecordError{WorkoutID: w.ID, Reason: fmt.Sprintf("unknown type [%s]", w.Type)}
	case !w.Status.IsValid():
		return &workouts.InvalidRecordError{WorkoutID: w.ID, Reason: fmt.Sprintf("unknown status [%s]", w.Status)}
	}
	return nil
}

func success[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func failure[T any](kind ErrorKind, msg string) Result[T] {
	return Result[T]{Error: msg, Kind: kind}
}

func (r Result[T]) err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}
