// Package main runs the workouts MCP server over stdio (for local editor/agent use).
// The same MCP server is also mounted on the main backend at /mcp over HTTP,
// so you can use either: stdio (this cmd) or the backend URL (no extra deploy).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/workoutlog/internal/cache"
	"github.com/2beens/workoutlog/internal/config"
	"github.com/2beens/workoutlog/internal/db"
	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	workoutsmcp "github.com/2beens/workoutlog/internal/workouts/mcp"
	"github.com/2beens/workoutlog/internal/workouts/store"
	"github.com/2beens/workoutlog/internal/workouts/timeline"

	"github.com/goodsign/monday"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDB,
		DBUser:         os.Getenv("WORKOUTLOG_DB_USER"),
		DBPassword:     os.Getenv("WORKOUTLOG_DB_PASS"),
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	service := store.NewService(
		store.NewRepo(dbPool),
		cache.NewViewCache(cfg.CacheSizeMB),
		metrics.NewManager("backend", "mcp", prometheus.NewRegistry()),
	)
	server := workoutsmcp.NewServer(service, timeline.NewGrouper(monday.Locale(cfg.Locale)))

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}
