package store

import (
	"context"
	"fmt"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
)

const schema = `
CREATE TABLE IF NOT EXISTS workout (
	id                  UUID PRIMARY KEY,
	date                DATE NOT NULL,
	type                TEXT NOT NULL,
	status              TEXT NOT NULL DEFAULT 'PENDING',
	planned_distance_km DOUBLE PRECISION,
	actual_distance_km  DOUBLE PRECISION,
	planned_time_min    INTEGER,
	actual_time_min     INTEGER,
	planned_pace        TEXT,
	actual_pace         TEXT,
	description         TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS workout_date_idx ON workout (date DESC);

CREATE TABLE IF NOT EXISTS workout_exercise (
	id         UUID PRIMARY KEY,
	workout_id UUID NOT NULL REFERENCES workout (id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	sets       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS workout_exercise_workout_idx ON workout_exercise (workout_id, position);
`

// EnsureSchema creates the workout tables if they do not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
