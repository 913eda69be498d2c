// Package mcp exposes cancellation runs as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
	"cancelbot/src/report"
)

// RunRequest overrides the configured branch and repositories for one run.
// Empty fields keep the configured values.
type RunRequest struct {
	Branch string
	Repos  []provider.Repo
	DryRun bool
}

// RunFunc performs one orchestrator run.
type RunFunc func(ctx context.Context, req RunRequest) (*orchestrator.Report, error)

// Server is the MCP server for cancelbot.
type Server struct {
	mcpServer *server.MCPServer
	run       RunFunc
	store     *RunStore
}

// NewServer creates a new MCP server backed by run.
func NewServer(version string, run RunFunc) *Server {
	s := server.NewMCPServer(
		"cancelbot",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		run:       run,
		store:     NewRunStore(DefaultStoreSize),
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	planTool := mcp.NewTool("plan_cancellations",
		mcp.WithDescription("List the CI builds cancelbot would cancel right now, without cancelling anything. Stale builds are older running builds on the branch; the latest build is only cancelled when one of its jobs already failed."),
		mcp.WithString("branch",
			mcp.Description("Branch to check (default: the configured branch)"),
		),
		mcp.WithString("repos",
			mcp.Description("Comma separated owner/repo list (default: the configured repositories)"),
		),
	)

	cancelTool := mcp.NewTool("cancel_stale_builds",
		mcp.WithDescription("Cancel stale and failing CI builds on a branch across Travis, AppVeyor and Azure Pipelines. Run plan_cancellations first to review the plan."),
		mcp.WithString("branch",
			mcp.Description("Branch to check (default: the configured branch)"),
		),
		mcp.WithString("repos",
			mcp.Description("Comma separated owner/repo list (default: the configured repositories)"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true; cancellations cannot be undone"),
		),
	)

	runTool := mcp.NewTool("get_run",
		mcp.WithDescription("Return the report of a previous run from this session."),
		mcp.WithString("run_id",
			mcp.Description("Run ID from a previous tool call (default: the latest run)"),
		),
	)

	s.mcpServer.AddTool(planTool, s.handlePlan)
	s.mcpServer.AddTool(cancelTool, s.handleCancel)
	s.mcpServer.AddTool(runTool, s.handleGetRun)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseRunRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.DryRun = true
	return s.execute(ctx, req)
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("confirm must be true to cancel builds"), nil
	}
	req, err := parseRunRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.execute(ctx, req)
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")

	var (
		r     *orchestrator.Report
		found bool
	)
	if runID == "" {
		r, found = s.store.Latest()
	} else {
		r, found = s.store.Get(runID)
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %q", runID)), nil
	}
	return toolResult(r)
}

func (s *Server) execute(ctx context.Context, req RunRequest) (*mcp.CallToolResult, error) {
	r, err := s.run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
	}
	s.store.Store(r)
	return toolResult(r)
}

func toolResult(r *orchestrator.Report) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(report.JSON(r))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func parseRunRequest(request mcp.CallToolRequest) (RunRequest, error) {
	req := RunRequest{Branch: strings.TrimSpace(request.GetString("branch", ""))}

	for _, part := range strings.Split(request.GetString("repos", ""), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		repo, err := provider.ParseRepo(part)
		if err != nil {
			return RunRequest{}, err
		}
		req.Repos = append(req.Repos, repo)
	}
	return req, nil
}
