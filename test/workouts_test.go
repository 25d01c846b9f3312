//go:build integration

package test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/workoutlog/internal/misc"
	"github.com/2beens/workoutlog/internal/workouts"
	"github.com/2beens/workoutlog/internal/workouts/form"
	"github.com/2beens/workoutlog/internal/workouts/summary"
	"github.com/2beens/workoutlog/internal/workouts/timeline"
)

type workoutResult struct {
	Success bool              `json:"success"`
	Data    *workouts.Workout `json:"data"`
	Error   string            `json:"error"`
}

func (s *IntegrationTestSuite) doRequest(method, path string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) createWorkout(state form.FormState) *workouts.Workout {
	status, respBytes := s.doRequest("POST", "/workouts", state)
	s.Require().Equal(http.StatusCreated, status, string(respBytes))

	var res workoutResult
	s.Require().NoError(json.Unmarshal(respBytes, &res))
	s.Require().True(res.Success)
	s.Require().NotNil(res.Data)
	return res.Data
}

func (s *IntegrationTestSuite) seedDecember() (run1, run2, weights *workouts.Workout) {
	run1 = s.createWorkout(form.FormState{
		Date:             "2025-12-01",
		Type:             workouts.ActivityTypeRun,
		Status:           workouts.StatusCompleted,
		ActualDistanceKm: "5",
		ActualTimeMin:    "28",
		ActualPace:       "5:36",
	})
	run2 = s.createWorkout(form.FormState{
		Date:              "2025-12-03",
		Type:              workouts.ActivityTypeRun,
		Status:            workouts.StatusCompleted,
		PlannedDistanceKm: "8",
		ActualDistanceKm:  "7.5",
	})
	weights = s.createWorkout(form.FormState{
		Date:   "2025-12-08",
		Type:   workouts.ActivityTypeWeightTraining,
		Status: workouts.StatusCompleted,
		WeightExercises: []form.ExerciseRow{
			{Name: "Squat", Sets: "3x10"},
			{Name: "Bench press", Sets: "4x8"},
			// incomplete rows are not stored
			{Name: "Deadlift"},
		},
	})
	return run1, run2, weights
}

func (s *IntegrationTestSuite) TestWorkoutsCRUD() {
	s.deleteAllWorkouts()
	run1, _, weights := s.seedDecember()

	s.Equal(3, s.countRows("workout"))
	s.Equal(2, s.countRows("workout_exercise"))

	s.Run("get", func() {
		status, respBytes := s.doRequest("GET", "/workouts/"+run1.ID, nil)
		s.Require().Equal(http.StatusOK, status)
		var res workoutResult
		s.Require().NoError(json.Unmarshal(respBytes, &res))
		s.Require().NotNil(res.Data.ActualDistanceKm)
		s.Equal(5.0, *res.Data.ActualDistanceKm)
		s.Equal("2025-12-01", res.Data.Date.Format("2006-01-02"))
	})

	s.Run("exercise order is kept", func() {
		status, respBytes := s.doRequest("GET", "/workouts/"+weights.ID, nil)
		s.Require().Equal(http.StatusOK, status)
		var res workoutResult
		s.Require().NoError(json.Unmarshal(respBytes, &res))
		s.Require().Len(res.Data.Exercises, 2)
		s.Equal("Squat", res.Data.Exercises[0].Name)
		s.Equal("Bench press", res.Data.Exercises[1].Name)
	})

	s.Run("edit form round trip", func() {
		status, respBytes := s.doRequest("GET", "/workouts/"+run1.ID+"/form", nil)
		s.Require().Equal(http.StatusOK, status)
		var edited form.FormState
		s.Require().NoError(json.Unmarshal(respBytes, &edited))
		s.Equal("2025-12-01", edited.Date)
		s.Equal("5", edited.ActualDistanceKm)

		edited.Status = workouts.StatusPending
		edited.Description = "rained all day"
		status, respBytes = s.doRequest("PUT", "/workouts/"+run1.ID, edited)
		s.Require().Equal(http.StatusOK, status, string(respBytes))

		var dbStatus, description string
		s.Require().NoError(s.DB.QueryRow(
			"SELECT status, description FROM workout WHERE id = $1", run1.ID,
		).Scan(&dbStatus, &description))
		s.Equal(string(workouts.StatusPending), dbStatus)
		s.Equal("rained all day", description)
	})

	s.Run("invalid form", func() {
		status, respBytes := s.doRequest("POST", "/workouts", form.FormState{
			Date:             "2025-12-10",
			Type:             workouts.ActivityTypeRun,
			Status:           workouts.StatusPending,
			ActualDistanceKm: "far",
		})
		s.Equal(http.StatusBadRequest, status, string(respBytes))
		s.Equal(3, s.countRows("workout"))
	})

	s.Run("delete", func() {
		status, _ := s.doRequest("DELETE", "/workouts/"+weights.ID, nil)
		s.Require().Equal(http.StatusOK, status)
		s.Equal(2, s.countRows("workout"))
		// exercises go with their workout
		s.Equal(0, s.countRows("workout_exercise"))

		status, _ = s.doRequest("GET", "/workouts/"+weights.ID, nil)
		s.Equal(http.StatusNotFound, status)
		status, _ = s.doRequest("DELETE", "/workouts/"+weights.ID, nil)
		s.Equal(http.StatusNotFound, status)
		status, _ = s.doRequest("GET", "/workouts/not-a-uuid", nil)
		s.Equal(http.StatusNotFound, status)
	})
}

func (s *IntegrationTestSuite) TestWorkoutsUpdate() {
	s.deleteAllWorkouts()
	run, _, weights := s.seedDecember()

	getWorkout := func(id string) *workouts.Workout {
		status, respBytes := s.doRequest("GET", "/workouts/"+id, nil)
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		var res workoutResult
		s.Require().NoError(json.Unmarshal(respBytes, &res))
		s.Require().NotNil(res.Data)
		return res.Data
	}

	s.Run("exercises are replaced as a whole", func() {
		status, respBytes := s.doRequest("PUT", "/workouts/"+weights.ID, form.FormState{
			Date:   "2025-12-08",
			Type:   workouts.ActivityTypeWeightTraining,
			Status: workouts.StatusCompleted,
			WeightExercises: []form.ExerciseRow{
				{Name: "Deadlift", Sets: "5x5"},
			},
		})
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		s.Equal(1, s.countRows("workout_exercise"))

		stored := getWorkout(weights.ID)
		s.Require().Len(stored.Exercises, 1)
		s.Equal("Deadlift", stored.Exercises[0].Name)
		s.Equal("5x5", stored.Exercises[0].Sets)
		s.Equal(weights.CreatedAt.Unix(), stored.CreatedAt.Unix())
	})

	s.Run("leaving weight training drops the exercises", func() {
		status, respBytes := s.doRequest("PUT", "/workouts/"+weights.ID, form.FormState{
			Date:   "2025-12-08",
			Type:   workouts.ActivityTypeRest,
			Status: workouts.StatusCompleted,
			WeightExercises: []form.ExerciseRow{
				{Name: "Deadlift", Sets: "5x5"},
			},
		})
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		s.Equal(0, s.countRows("workout_exercise"))
		s.Empty(getWorkout(weights.ID).Exercises)
	})

	s.Run("leaving run drops the run fields", func() {
		status, respBytes := s.doRequest("PUT", "/workouts/"+run.ID, form.FormState{
			Date:             "2025-12-01",
			Type:             workouts.ActivityTypeRest,
			Status:           workouts.StatusCompleted,
			ActualDistanceKm: "5",
			ActualPace:       "5:36",
		})
		s.Require().Equal(http.StatusOK, status, string(respBytes))

		var distance sql.NullFloat64
		var pace sql.NullString
		s.Require().NoError(s.DB.QueryRow(
			"SELECT actual_distance_km, actual_pace FROM workout WHERE id = $1", run.ID,
		).Scan(&distance, &pace))
		s.False(distance.Valid)
		s.False(pace.Valid)
	})

	s.Run("not a number distance is rejected", func() {
		status, _ := s.doRequest("PUT", "/workouts/"+run.ID, form.FormState{
			Date:             "2025-12-01",
			Type:             workouts.ActivityTypeRun,
			Status:           workouts.StatusCompleted,
			ActualDistanceKm: "NaN",
		})
		s.Equal(http.StatusBadRequest, status)

		// views still build from the stored rows
		status, respBytes := s.doRequest("GET", "/timeline", nil)
		s.Equal(http.StatusOK, status, string(respBytes))
	})

	s.Run("unknown workout", func() {
		status, _ := s.doRequest("PUT", "/workouts/00000000-0000-0000-0000-000000000000", form.FormState{
			Date:   "2025-12-01",
			Type:   workouts.ActivityTypeRest,
			Status: workouts.StatusPending,
		})
		s.Equal(http.StatusNotFound, status)
	})
}

func (s *IntegrationTestSuite) TestWorkoutsList() {
	s.deleteAllWorkouts()
	s.seedDecember()

	list := func(query string) []workouts.Workout {
		status, respBytes := s.doRequest("GET", "/workouts"+query, nil)
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		var res struct {
			Data []workouts.Workout `json:"data"`
		}
		s.Require().NoError(json.Unmarshal(respBytes, &res))
		return res.Data
	}

	all := list("")
	s.Require().Len(all, 3)
	// newest first
	s.Equal("2025-12-08", all[0].Date.Format("2006-01-02"))
	s.Equal("2025-12-01", all[2].Date.Format("2006-01-02"))

	s.Len(list("?type=RUN"), 2)
	s.Len(list("?from=2025-12-02&to=2025-12-05"), 1)
	s.Len(list("?limit=1"), 1)

	status, _ := s.doRequest("GET", "/workouts?type=SWIM", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestTimelineAndSummary() {
	s.deleteAllWorkouts()
	s.seedDecember()
	s.createWorkout(form.FormState{
		Date:   "2024-03-10",
		Type:   workouts.ActivityTypeRest,
		Status: workouts.StatusCompleted,
	})

	s.Run("timeline", func() {
		status, respBytes := s.doRequest("GET", "/timeline", nil)
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		var months []timeline.MonthBucket
		s.Require().NoError(json.Unmarshal(respBytes, &months))
		s.Require().Len(months, 2)
		s.Equal("December 2025", months[0].MonthName)
		s.Require().Len(months[0].Weeks, 2)
		s.Equal("2025-12-08", months[0].Weeks[0].WeekKey)
		s.Equal("2025-12-01", months[0].Weeks[1].WeekKey)
		s.Len(months[0].Weeks[1].Workouts, 2)
		s.Equal("March 2024", months[1].MonthName)

		// served from the view cache the second time
		status, cached := s.doRequest("GET", "/timeline", nil)
		s.Require().Equal(http.StatusOK, status)
		s.JSONEq(string(respBytes), string(cached))
	})

	s.Run("timeline filtered", func() {
		status, respBytes := s.doRequest("GET", "/timeline?year=2024&month=3", nil)
		s.Require().Equal(http.StatusOK, status)
		var months []timeline.MonthBucket
		s.Require().NoError(json.Unmarshal(respBytes, &months))
		s.Require().Len(months, 1)
		s.Equal("2024-03", months[0].MonthKey)
	})

	s.Run("years", func() {
		status, respBytes := s.doRequest("GET", "/timeline/years", nil)
		s.Require().Equal(http.StatusOK, status)
		s.JSONEq(`[2025, 2024]`, string(respBytes))
	})

	s.Run("summary all time", func() {
		status, respBytes := s.doRequest("GET", "/summary?timeframe=ALL&metric=SUM_DISTANCE", nil)
		s.Require().Equal(http.StatusOK, status, string(respBytes))
		var card summary.Card
		s.Require().NoError(json.Unmarshal(respBytes, &card))
		s.Equal(12.5, card.Value)
		s.Equal("12.5", card.DisplayValue)

		status, respBytes = s.doRequest("GET", "/summary?timeframe=ALL&metric=COUNT_COMPLETED", nil)
		s.Require().Equal(http.StatusOK, status)
		s.Require().NoError(json.Unmarshal(respBytes, &card))
		s.Equal(4.0, card.Value)
	})

	s.Run("summary invalid", func() {
		status, _ := s.doRequest("GET", "/summary?timeframe=DECADE&metric=SUM_DISTANCE", nil)
		s.Equal(http.StatusBadRequest, status)
	})

	s.Run("dashboard", func() {
		status, respBytes := s.doRequest("GET", "/dashboard", nil)
		s.Require().Equal(http.StatusOK, status)
		var cards []summary.Card
		s.Require().NoError(json.Unmarshal(respBytes, &cards))
		s.Len(cards, 8)
	})

	s.Run("writes clear the views", func() {
		s.createWorkout(form.FormState{
			Date:             "2025-11-30",
			Type:             workouts.ActivityTypeRun,
			Status:           workouts.StatusCompleted,
			ActualDistanceKm: "10",
		})
		status, respBytes := s.doRequest("GET", "/summary?timeframe=ALL&metric=SUM_DISTANCE", nil)
		s.Require().Equal(http.StatusOK, status)
		var card summary.Card
		s.Require().NoError(json.Unmarshal(respBytes, &card))
		s.Equal(22.5, card.Value)
	})
}

func (s *IntegrationTestSuite) TestHealth() {
	status, respBytes := s.doRequest("GET", "/health", nil)
	s.Require().Equal(http.StatusOK, status, string(respBytes))

	var health misc.HealthStatus
	s.Require().NoError(json.Unmarshal(respBytes, &health))
	s.True(health.Healthy)
	s.Equal("ok", health.Dependencies["postgres"])
	s.Equal("ok", health.Dependencies["redis"])

	status, respBytes = s.doRequest("GET", "/version", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("test-version-info", string(respBytes))
}

func (s *IntegrationTestSuite) TestMCPEndpoint() {
	req, err := http.NewRequest("POST", serverEndpoint+"/mcp", bytes.NewBufferString(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`,
	))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("Mcp-Session-Id"), fmt.Sprintf("headers: %v", resp.Header))
}
