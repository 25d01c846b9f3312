package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/workoutlog/internal/workouts"
	"github.com/2beens/workoutlog/internal/workouts/store"
	"github.com/2beens/workoutlog/internal/workouts/summary"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

// NewHandler builds a handler with the given service.
func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// TimelineInput is the input for get_workout_timeline.
type TimelineInput struct {
	Year  int `json:"year,omitempty" jsonschema:"Only workouts of this year (e.g. 2025), 0 or missing for all"`
	Month int `json:"month,omitempty" jsonschema:"Only workouts of this month (1-12), 0 or missing for all"`
}

// GetWorkoutTimelineTool returns the MCP tool handler for get_workout_timeline.
func (h *Handler) GetWorkoutTimelineTool() func(context.Context, *mcp.CallToolRequest, TimelineInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in TimelineInput) (*mcp.CallToolResult, any, error) {
		if in.Year < 0 {
			return errorResult("Invalid year"), nil, nil
		}
		if in.Month < 0 || in.Month > 12 {
			return errorResult("Invalid month: use 1-12"), nil, nil
		}

		months, err := h.service.Timeline(ctx, in.Year, in.Month)
		if err != nil {
			return errorResult("Error building timeline: " + err.Error()), nil, nil
		}
		return jsonResult(months)
	}
}

// SummaryInput is the input for get_workout_summary.
type SummaryInput struct {
	Timeframe string `json:"timeframe" jsonschema:"One of ALL (or total), YEAR, MONTH, WEEK"`
	Metric    string `json:"metric" jsonschema:"One of COUNT_COMPLETED (or workouts), SUM_DISTANCE (or distance)"`
}

// GetWorkoutSummaryTool returns the MCP tool handler for get_workout_summary.
func (h *Handler) GetWorkoutSummaryTool() func(context.Context, *mcp.CallToolRequest, SummaryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SummaryInput) (*mcp.CallToolResult, any, error) {
		tf, err := summary.ParseTimeframe(in.Timeframe)
		if err != nil {
			return errorResult("Invalid timeframe: use ALL, YEAR, MONTH or WEEK"), nil, nil
		}
		metric, err := summary.ParseMetric(in.Metric)
		if err != nil {
			return errorResult("Invalid metric: use COUNT_COMPLETED or SUM_DISTANCE"), nil, nil
		}

		card, err := h.service.Summary(ctx, tf, metric)
		if err != nil {
			return errorResult("Error computing summary: " + err.Error()), nil, nil
		}
		return jsonResult(card)
	}
}

// ListWorkoutsInput is the input for list_workouts.
type ListWorkoutsInput struct {
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
	Type     string `json:"type,omitempty" jsonschema:"Filter by activity type: RUN, WEIGHT_TRAINING, REST"`
	Status   string `json:"status,omitempty" jsonschema:"Filter by status: PENDING, COMPLETED"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max number of workouts, most recent first"`
}

// ListWorkoutsTool returns the MCP tool handler for list_workouts.
func (h *Handler) ListWorkoutsTool() func(context.Context, *mcp.CallToolRequest, ListWorkoutsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ListWorkoutsInput) (*mcp.CallToolResult, any, error) {
		params := store.ListParams{
			Type:   workouts.ActivityType(in.Type),
			Status: workouts.Status(in.Status),
			Limit:  in.Limit,
		}
		if in.FromDate != "" {
			from, err := time.ParseInLocation(time.DateOnly, in.FromDate, time.UTC)
			if err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
			params.From = &from
		}
		if in.ToDate != "" {
			to, err := time.ParseInLocation(time.DateOnly, in.ToDate, time.UTC)
			if err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
			params.To = &to
		}
		if in.Limit < 0 {
			return errorResult("Invalid limit"), nil, nil
		}

		list, err := h.service.ListWorkouts(ctx, params)
		if err != nil {
			return errorResult("Error listing workouts: " + err.Error()), nil, nil
		}
		return jsonResult(list)
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}, nil, nil
}
