package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workouts"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type ListParams struct {
	From   *time.Time
	To     *time.Time
	Type   workouts.ActivityType
	Status workouts.Status
	// Limit <= 0 means no limit
	Limit int
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const workoutColumns = `
	w.id, w.date, w.type, w.status,
	w.planned_distance_km, w.actual_distance_km, w.planned_time_min, w.actual_time_min,
	w.planned_pace, w.actual_pace, w.description,
	w.created_at, w.updated_at`

// Create stores a new workout. Run columns are only written for runs, and
// exercises only for weight training sessions.
func (r *Repo) Create(ctx context.Context, workout workouts.Workout) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout.ID = uuid.NewString()
	workout.Date = workouts.NormalizeDate(workout.Date)
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	if workout.Type != workouts.ActivityTypeRun {
		workout.ClearRunFields()
	}
	if workout.Type != workouts.ActivityTypeWeightTraining {
		workout.Exercises = []workouts.Exercise{}
	}
	span.SetAttributes(attribute.String("workout.id", workout.ID))
	span.SetAttributes(attribute.String("workout.type", workout.Type.String()))

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO workout
					(id, date, type, status,
					planned_distance_km, actual_distance_km, planned_time_min, actual_time_min,
					planned_pace, actual_pace, description, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
			workout.ID, workout.Date, workout.Type.String(), workout.Status.String(),
			workout.PlannedDistanceKm, workout.ActualDistanceKm, workout.PlannedTimeMin, workout.ActualTimeMin,
			workout.PlannedPace, workout.ActualPace, workout.Description, workout.CreatedAt, workout.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert workout: %w", err)
		}

		exercises, err := insertExercises(ctx, tx, workout.ID, workout.Exercises)
		if err != nil {
			return err
		}
		workout.Exercises = exercises
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

// Update replaces the stored workout with the given one. The exercise list is
// replaced as a whole, and emptied for anything but weight training. Run
// columns are cleared for anything but runs.
func (r *Repo) Update(ctx context.Context, workout workouts.Workout) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workout.ID))
	span.SetAttributes(attribute.String("workout.type", workout.Type.String()))

	if _, err := uuid.Parse(workout.ID); err != nil {
		return nil, workouts.ErrWorkoutNotFound
	}

	workout.Date = workouts.NormalizeDate(workout.Date)
	workout.UpdatedAt = time.Now().UTC()
	if workout.Type != workouts.ActivityTypeRun {
		workout.ClearRunFields()
	}
	if workout.Type != workouts.ActivityTypeWeightTraining {
		workout.Exercises = []workouts.Exercise{}
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(
			ctx,
			`UPDATE workout SET
					date = $1, type = $2, status = $3,
					planned_distance_km = $4, actual_distance_km = $5, planned_time_min = $6, actual_time_min = $7,
					planned_pace = $8, actual_pace = $9, description = $10, updated_at = $11
				WHERE id = $12
				RETURNING created_at;`,
			workout.Date, workout.Type.String(), workout.Status.String(),
			workout.PlannedDistanceKm, workout.ActualDistanceKm, workout.PlannedTimeMin, workout.ActualTimeMin,
			workout.PlannedPace, workout.ActualPace, workout.Description, workout.UpdatedAt,
			workout.ID,
		)
		if err != nil {
			return fmt.Errorf("update workout: %w", err)
		}
		createdAt, err := pgx.CollectOneRow(rows, pgx.RowTo[time.Time])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return workouts.ErrWorkoutNotFound
			}
			return fmt.Errorf("update workout: %w", err)
		}
		workout.CreatedAt = createdAt

		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercise WHERE workout_id = $1;`, workout.ID); err != nil {
			return fmt.Errorf("clear exercises: %w", err)
		}

		exercises, err := insertExercises(ctx, tx, workout.ID, workout.Exercises)
		if err != nil {
			return err
		}
		workout.Exercises = exercises
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

// Delete removes the workout (and its exercises) and returns what was deleted.
func (r *Repo) Delete(ctx context.Context, id string) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, workouts.ErrWorkoutNotFound
	}

	var deleted *workouts.Workout
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		found, err := getWorkout(ctx, tx, id)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM workout WHERE id = $1;`, id)
		if err != nil {
			return fmt.Errorf("delete workout: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return workouts.ErrWorkoutNotFound
		}

		deleted = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, workouts.ErrWorkoutNotFound
	}

	return getWorkout(ctx, r.db, id)
}

// List returns the workouts matching params, most recent first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("type", params.Type.String()))
	span.SetAttributes(attribute.String("status", params.Status.String()))
	span.SetAttributes(attribute.Int("limit", params.Limit))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	var limit *int
	if params.Limit > 0 {
		limit = &params.Limit
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout w
			WHERE ($1::date IS NULL OR w.date >= $1)
				AND ($2::date IS NULL OR w.date <= $2)
				AND ($3::text = '' OR w.type = $3)
				AND ($4::text = '' OR w.status = $4)
			ORDER BY w.date DESC, w.created_at DESC
			LIMIT $5;`,
		params.From, params.To,
		params.Type.String(), params.Status.String(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	list, err := pgx.CollectRows(rows, scanWorkout)
	if err != nil {
		return nil, fmt.Errorf("collect workouts: %w", err)
	}

	if err := attachExercises(ctx, r.db, list); err != nil {
		return nil, err
	}

	return list, nil
}

func getWorkout(ctx context.Context, q querier, id string) (*workouts.Workout, error) {
	rows, err := q.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workout w WHERE w.id = $1;`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	workout, err := pgx.CollectOneRow(rows, scanWorkout)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workouts.ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("collect workout: %w", err)
	}

	list := []workouts.Workout{workout}
	if err := attachExercises(ctx, q, list); err != nil {
		return nil, err
	}

	return &list[0], nil
}

func scanWorkout(row pgx.CollectableRow) (workouts.Workout, error) {
	var (
		w              workouts.Workout
		wType, wStatus string
	)
	err := row.Scan(
		&w.ID, &w.Date, &wType, &wStatus,
		&w.PlannedDistanceKm, &w.ActualDistanceKm, &w.PlannedTimeMin, &w.ActualTimeMin,
		&w.PlannedPace, &w.ActualPace, &w.Description,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return workouts.Workout{}, err
	}
	w.Type = workouts.ActivityType(wType)
	w.Status = workouts.Status(wStatus)
	w.Date = workouts.NormalizeDate(w.Date)
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	w.Exercises = []workouts.Exercise{}
	return w, nil
}

// attachExercises loads the exercises of all given workouts in one query.
func attachExercises(ctx context.Context, q querier, list []workouts.Workout) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, 0, len(list))
	index := make(map[string]int, len(list))
	for i, w := range list {
		ids = append(ids, w.ID)
		index[w.ID] = i
	}

	rows, err := q.Query(
		ctx,
		`SELECT workout_id, id, name, sets
			FROM workout_exercise
			WHERE workout_id = ANY($1::uuid[])
			ORDER BY workout_id, position;`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			workoutID string
			ex        workouts.Exercise
		)
		if err := rows.Scan(&workoutID, &ex.ID, &ex.Name, &ex.Sets); err != nil {
			return fmt.Errorf("scan exercise: %w", err)
		}
		if i, ok := index[workoutID]; ok {
			list[i].Exercises = append(list[i].Exercises, ex)
		}
	}

	return rows.Err()
}

func insertExercises(ctx context.Context, tx pgx.Tx, workoutID string, exercises []workouts.Exercise) ([]workouts.Exercise, error) {
	stored := make([]workouts.Exercise, 0, len(exercises))
	for i, ex := range exercises {
		ex.ID = uuid.NewString()
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO workout_exercise (id, workout_id, position, name, sets) VALUES ($1, $2, $3, $4, $5);`,
			ex.ID, workoutID, i, ex.Name, ex.Sets,
		); err != nil {
			return nil, fmt.Errorf("insert exercise %d: %w", i, err)
		}
		stored = append(stored, ex)
	}
	return stored, nil
}
