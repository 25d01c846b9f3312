package mcp

import (
	"net/http"

	"github.com/2beens/workoutlog/internal/workouts/timeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with the workout tools: timeline, summary, list.
// Used by the main backend when mounting MCP at /mcp (internal/server) and by cmd/workouts_mcp over stdio.
func NewServer(source WorkoutsSource, grouper *timeline.Grouper) *mcp.Server {
	h := NewHandler(NewContextService(source, grouper))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "workoutlog-context",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_timeline",
		Description: "Returns the workouts grouped by month (most recent first) and by Monday-started week inside each month, with ISO week numbers. Optional filters: year, month (1-12). Use when you need the training history of a period.",
	}, h.GetWorkoutTimelineTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_summary",
		Description: "Returns one KPI over the COMPLETED workouts: count of completed workouts or the sum of the run distance (km), for ALL time, the current YEAR, MONTH or WEEK (Sunday to Saturday). Args: timeframe, metric.",
	}, h.GetWorkoutSummaryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_workouts",
		Description: "Returns stored workouts, most recent first. Optional filters: from_date, to_date (YYYY-MM-DD), type (RUN, WEIGHT_TRAINING, REST), status (PENDING, COMPLETED), limit.",
	}, h.ListWorkoutsTool())

	return s
}

// NewHTTPHandler serves the MCP server over streamable HTTP.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
