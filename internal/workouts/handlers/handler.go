package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/workoutlog/internal/cache"
	"github.com/2beens/workoutlog/internal/middleware"
	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workouts"
	"github.com/2beens/workoutlog/internal/workouts/form"
	"github.com/2beens/workoutlog/internal/workouts/store"
	"github.com/2beens/workoutlog/internal/workouts/summary"
	"github.com/2beens/workoutlog/internal/workouts/timeline"
	"github.com/2beens/workoutlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=handlers_test

type workoutsService interface {
	Create(ctx context.Context, workout workouts.Workout) store.Result[*workouts.Workout]
	Update(ctx context.Context, workout workouts.Workout) store.Result[*workouts.Workout]
	Delete(ctx context.Context, id string) store.Result[*workouts.Workout]
	Get(ctx context.Context, id string) store.Result[*workouts.Workout]
	List(ctx context.Context, params store.ListParams) store.Result[[]workouts.Workout]
	All(ctx context.Context) store.Result[[]workouts.Workout]
}

type Handler struct {
	service        workoutsService
	viewCache      cache.Cache
	grouper        *timeline.Grouper
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(
	service workoutsService,
	viewCache cache.Cache,
	grouper *timeline.Grouper,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		service:        service,
		viewCache:      viewCache,
		grouper:        grouper,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// WithClock replaces the clock used for the summary windows and new forms.
func (handler *Handler) WithClock(now func() time.Time) *Handler {
	handler.now = now
	return handler
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	writesAllowedPerMin int,
) {
	// writes are rate limited, all clients share the budget
	writeRouter := mainRouter.Methods("POST", "PUT", "DELETE").Subrouter()
	writeRouter.HandleFunc("/workouts", handler.HandleCreate).Methods("POST").Name("new-workout")
	writeRouter.HandleFunc("/workouts/{id}", handler.HandleUpdate).Methods("PUT").Name("update-workout")
	writeRouter.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE").Name("delete-workout")
	if rateLimiter != nil {
		writeRouter.Use(middleware.RateLimit(rateLimiter, handler.metricsManager, "workouts-write", writesAllowedPerMin))
	}

	mainRouter.HandleFunc("/workouts", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	mainRouter.HandleFunc("/workouts/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	mainRouter.HandleFunc("/workouts/{id}/form", handler.HandleGetForm).Methods("GET", "OPTIONS").Name("get-workout-form")
	mainRouter.HandleFunc("/forms/new", handler.HandleNewForm).Methods("GET", "OPTIONS").Name("new-workout-form")
	mainRouter.HandleFunc("/timeline", handler.HandleTimeline).Methods("GET", "OPTIONS").Name("timeline")
	mainRouter.HandleFunc("/timeline/years", handler.HandleTimelineYears).Methods("GET", "OPTIONS").Name("timeline-years")
	mainRouter.HandleFunc("/summary", handler.HandleSummary).Methods("GET", "OPTIONS").Name("summary")
	mainRouter.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new")
	defer span.End()

	workout, ok := handler.decodeForm(w, r)
	if !ok {
		return
	}

	res := handler.service.Create(ctx, workout)
	if res.Success {
		log.Debugf("new workout added: [%s] [%s] %s", res.Data.ID, res.Data.Type, res.Data.Date.Format(time.DateOnly))
		span.SetAttributes(attribute.String("workout.id", res.Data.ID))
	}
	writeResult(w, res, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("workout.id", id))

	workout, ok := handler.decodeForm(w, r)
	if !ok {
		return
	}
	workout.ID = id

	writeResult(w, handler.service.Update(ctx, workout), http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("workout.id", id))

	res := handler.service.Delete(ctx, id)
	if res.Success {
		log.Debugf("workout deleted: [%s]", id)
	}
	writeResult(w, res, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("workout.id", id))

	writeResult(w, handler.service.Get(ctx, id), http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	params, err := listParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeResult(w, handler.service.List(ctx, params), http.StatusOK)
}

func (handler *Handler) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.form")
	defer span.End()

	id := mux.Vars(r)["id"]
	res := handler.service.Get(ctx, id)
	if !res.Success {
		writeResult(w, res, http.StatusOK)
		return
	}

	if err := pkg.WriteJSON(w, form.ToFormState(*res.Data), http.StatusOK); err != nil {
		log.Errorf("write workout [%s] form: %s", id, err)
		http.Error(w, "failed to marshal workout form", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleNewForm(w http.ResponseWriter, _ *http.Request) {
	if err := pkg.WriteJSON(w, form.NewFormState(handler.now()), http.StatusOK); err != nil {
		log.Errorf("write new workout form: %s", err)
		http.Error(w, "failed to marshal workout form", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.timeline")
	defer span.End()

	year, err := pkg.QueryInt(r.URL.Query(), "year", 0)
	if err != nil || year < 0 {
		http.Error(w, "error, invalid year", http.StatusBadRequest)
		return
	}
	month, err := pkg.QueryInt(r.URL.Query(), "month", 0)
	if err != nil || month < 0 || month > 12 {
		http.Error(w, "error, invalid month", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("year", year), attribute.Int("month", month))

	handler.serveView(ctx, w, fmt.Sprintf("timeline:%d:%d", year, month), func(all []workouts.Workout) (any, error) {
		return handler.grouper.Group(timeline.Filter(all, year, month))
	})
}

func (handler *Handler) HandleTimelineYears(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.timeline.years")
	defer span.End()

	handler.serveView(ctx, w, "timeline:years", func(all []workouts.Workout) (any, error) {
		return timeline.Years(all), nil
	})
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.summary")
	defer span.End()

	q := r.URL.Query()
	tf, err := summary.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metric, err := summary.ParseMetric(q.Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("timeframe", string(tf)), attribute.String("metric", string(metric)))

	now := handler.now()
	key := fmt.Sprintf("summary:%s:%s:%s", tf, metric, now.UTC().Format(time.DateOnly))
	handler.serveView(ctx, w, key, func(all []workouts.Workout) (any, error) {
		value, err := summary.Aggregate(all, tf, metric, now)
		if err != nil {
			return nil, err
		}
		window, err := summary.Window(tf, now)
		if err != nil {
			return nil, err
		}
		return summary.NewCard(tf, metric, value, window), nil
	})
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.dashboard")
	defer span.End()

	now := handler.now()
	key := "dashboard:" + now.UTC().Format(time.DateOnly)
	handler.serveView(ctx, w, key, func(all []workouts.Workout) (any, error) {
		return summary.Dashboard(all, now)
	})
}

// serveView writes the cached view under key, or computes it from the full
// workouts snapshot and caches it. Writes to the workouts clear the cache.
func (handler *Handler) serveView(
	ctx context.Context,
	w http.ResponseWriter,
	key string,
	compute func(all []workouts.Workout) (any, error),
) {
	view := viewName(key)
	if cached, found := handler.viewCache.Get(key); found {
		handler.countView(view, "hit")
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}
	handler.countView(view, "miss")

	res := handler.service.All(ctx)
	if !res.Success {
		http.Error(w, res.Error, http.StatusInternalServerError)
		return
	}

	data, err := compute(res.Data)
	if err != nil {
		log.Errorf("compute view [%s]: %s", key, err)
		http.Error(w, fmt.Sprintf("error, failed to build %s", view), statusForErr(err))
		return
	}

	viewJson, err := json.Marshal(data)
	if err != nil {
		log.Errorf("marshal view [%s]: %s", key, err)
		http.Error(w, "failed to marshal view", http.StatusInternalServerError)
		return
	}

	handler.viewCache.Set(key, viewJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, viewJson, http.StatusOK)
}

func (handler *Handler) countView(view, result string) {
	if handler.metricsManager != nil {
		handler.metricsManager.CounterViewCache.WithLabelValues(view, result).Inc()
	}
}

// decodeForm reads the form state from the request body and turns it into
// a workout. On failure the response is already written.
func (handler *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (workouts.Workout, bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return workouts.Workout{}, false
	}

	var f form.FormState
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "workout form too large", http.StatusRequestEntityTooLarge)
			return workouts.Workout{}, false
		}
		log.Errorf("workout form, unmarshal json: %s", err)
		http.Error(w, "invalid workout form", http.StatusBadRequest)
		return workouts.Workout{}, false
	}

	if err := form.Validate(f); err != nil {
		writeResult(w, store.Result[*workouts.Workout]{Error: err.Error(), Kind: store.ErrorKindInvalid}, http.StatusOK)
		return workouts.Workout{}, false
	}

	workout, err := form.ToPersistedShape(f)
	if err != nil {
		writeResult(w, store.Result[*workouts.Workout]{Error: err.Error(), Kind: store.ErrorKindInvalid}, http.StatusOK)
		return workouts.Workout{}, false
	}

	return workout, true
}

func writeResult[T any](w http.ResponseWriter, res store.Result[T], successStatus int) {
	status := successStatus
	if !res.Success {
		switch res.Kind {
		case store.ErrorKindInvalid:
			status = http.StatusBadRequest
		case store.ErrorKindNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusInternalServerError
		}
	}

	if err := pkg.WriteJSON(w, res, status); err != nil {
		log.Errorf("write result: %s", err)
		http.Error(w, "failed to marshal result", http.StatusInternalServerError)
	}
}

func listParams(q url.Values) (store.ListParams, error) {
	var (
		params store.ListParams
		err    error
	)
	if params.From, err = pkg.QueryDate(q, "from"); err != nil {
		return params, err
	}
	if params.To, err = pkg.QueryDate(q, "to"); err != nil {
		return params, err
	}
	if params.Limit, err = pkg.QueryInt(q, "limit", 0); err != nil {
		return params, err
	}
	if params.Limit < 0 {
		return params, &workouts.InvalidParameterError{Param: "limit", Value: q.Get("limit")}
	}
	params.Type = workouts.ActivityType(q.Get("type"))
	params.Status = workouts.Status(q.Get("status"))
	return params, nil
}

func statusForErr(err error) int {
	if workouts.IsInvalidParameter(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func viewName(key string) string {
	name, _, _ := strings.Cut(key, ":")
	return name
}
