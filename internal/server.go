package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/goodsign/monday"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/workoutlog/internal/cache"
	"github.com/2beens/workoutlog/internal/config"
	"github.com/2beens/workoutlog/internal/db"
	"github.com/2beens/workoutlog/internal/middleware"
	"github.com/2beens/workoutlog/internal/misc"
	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	"github.com/2beens/workoutlog/internal/telemetry/tracing"
	"github.com/2beens/workoutlog/internal/workouts/handlers"
	workoutsmcp "github.com/2beens/workoutlog/internal/workouts/mcp"
	"github.com/2beens/workoutlog/internal/workouts/store"
	"github.com/2beens/workoutlog/internal/workouts/timeline"
)

// workout forms are small, the largest part being the exercise rows
const maxRequestBodyBytes = 256 << 10

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	viewCache       cache.Cache
	grouper         *timeline.Grouper
	workoutsService *store.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	DBUser                  string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDB,
		DBUser:         params.DBUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	workoutsRepo := store.NewRepo(dbPool)
	if err := workoutsRepo.EnsureSchema(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ensure workouts schema: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDB},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "workoutlog-backend")
	if err != nil {
		dbPool.Close()
		return nil, multierr.Append(err, rdb.Close())
	}

	viewCache := cache.NewViewCache(params.Config.CacheSizeMB)

	return &Server{
		versionInfo: params.VersionInfo,
		config:      params.Config,
		dbPool:      dbPool,
		redisClient: rdb,

		viewCache:       viewCache,
		grouper:         timeline.NewGrouper(monday.Locale(params.Config.Locale)),
		workoutsService: store.NewService(workoutsRepo, viewCache, metricsManager),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	if s.workoutsService == nil {
		return nil, errors.New("workouts service not set")
	}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	var (
		dbPinger    misc.DBPinger
		redisPinger misc.RedisPinger
	)
	if s.dbPool != nil {
		dbPinger = s.dbPool
	}
	if s.redisClient != nil {
		redisPinger = s.redisClient
	}
	miscHandler := misc.NewHandler(s.versionInfo, dbPinger, redisPinger)
	miscHandler.SetupRoutes(r)

	var writesLimiter middleware.RequestRateLimiter
	if s.redisClient != nil && s.config.WriteRateLimitPerMin > 0 {
		writesLimiter = redis_rate.NewLimiter(s.redisClient)
	}
	workoutsHandler := handlers.NewHandler(
		s.workoutsService,
		s.viewCache,
		s.grouper,
		s.metricsManager,
	)
	workoutsHandler.SetupRoutes(r, writesLimiter, s.config.WriteRateLimitPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r, nil
}

// rootHandler mounts the MCP server at /mcp next to the API router. MCP
// responses are streamed, so they skip the router middlewares wrapping the
// response writer.
func (s *Server) rootHandler() (http.Handler, error) {
	router, err := s.routerSetup()
	if err != nil {
		return nil, err
	}

	mcpServer := workoutsmcp.NewServer(s.workoutsService, s.grouper)
	mcpHandler := middleware.Cors()(
		otelhttp.NewHandler(workoutsmcp.NewHTTPHandler(mcpServer), "mcp"),
	)

	root := http.NewServeMux()
	root.Handle("/mcp", mcpHandler)
	root.Handle("/mcp/", mcpHandler)
	root.Handle("/", router)
	return root, nil
}

func (s *Server) Serve(host string, port int) {
	handler, err := s.rootHandler()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      handler,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	var shutdownErr error

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, they still need the db and redis
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown http server: %w", err))
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown metrics server: %w", err))
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return shutdownErr
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Inc()
	case http.StateClosed:
		s.metricsManager.GaugeOpenConnections.Dec()
	default:
		// do nothing
	}
}
