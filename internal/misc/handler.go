package misc

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const healthCheckTimeout = 2 * time.Second

type DBPinger interface {
	Ping(ctx context.Context) error
}

type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Handler struct {
	versionInfo string
	db          DBPinger
	redis       RedisPinger
}

// HealthStatus is the /health response, dependency name to "ok" or the error.
type HealthStatus struct {
	Healthy      bool              `json:"healthy"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHandler(versionInfo string, db DBPinger, redis RedisPinger) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		db:          db,
		redis:       redis,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{
		Healthy:      true,
		Dependencies: make(map[string]string),
	}
	check := func(name string, err error) {
		if err != nil {
			log.Errorf("health check, %s: %s", name, err)
			status.Healthy = false
			status.Dependencies[name] = err.Error()
			return
		}
		status.Dependencies[name] = "ok"
	}

	if handler.db != nil {
		check("postgres", handler.db.Ping(ctx))
	}
	if handler.redis != nil {
		check("redis", handler.redis.Ping(ctx).Err())
	}
	span.SetAttributes(attribute.Bool("healthy", status.Healthy))

	statusCode := http.StatusOK
	if !status.Healthy {
		statusCode = http.StatusServiceUnavailable
	}
	if err := pkg.WriteJSON(w, status, statusCode); err != nil {
		log.Errorf("write health status: %s", err)
		http.Error(w, "failed to marshal health status", http.StatusInternalServerError)
	}
}
