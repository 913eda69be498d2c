package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("content is %T, want text", result.Content[0])
	return ""
}

type recordingRun struct {
	requests []RunRequest
	err      error
}

func (r *recordingRun) run(ctx context.Context, req RunRequest) (*orchestrator.Report, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &orchestrator.Report{
		RunID:  "run-" + string(rune('0'+len(r.requests))),
		Branch: req.Branch,
		DryRun: req.DryRun,
	}, nil
}

func TestHandlePlan_IsDryRun(t *testing.T) {
	rec := &recordingRun{}
	s := NewServer("test", rec.run)

	result, err := s.handlePlan(context.Background(), callRequest(map[string]any{
		"branch": "auto",
		"repos":  "rust-lang/rust, rust-lang/cargo",
	}))
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handlePlan() returned error result: %s", resultText(t, result))
	}

	if len(rec.requests) != 1 {
		t.Fatalf("run called %d times, want 1", len(rec.requests))
	}
	req := rec.requests[0]
	if !req.DryRun || req.Branch != "auto" {
		t.Errorf("request = %+v, want dry run on auto", req)
	}
	want := []provider.Repo{{Owner: "rust-lang", Name: "rust"}, {Owner: "rust-lang", Name: "cargo"}}
	if len(req.Repos) != 2 || req.Repos[0] != want[0] || req.Repos[1] != want[1] {
		t.Errorf("Repos = %+v, want %+v", req.Repos, want)
	}

	var doc struct {
		RunID  string `json:"run_id"`
		DryRun bool   `json:"dry_run"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &doc); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if !doc.DryRun || doc.RunID != "run-1" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHandlePlan_InvalidRepo(t *testing.T) {
	rec := &recordingRun{}
	s := NewServer("test", rec.run)

	result, _ := s.handlePlan(context.Background(), callRequest(map[string]any{"repos": "rust"}))

	if !result.IsError {
		t.Error("expected error result for invalid repo")
	}
	if len(rec.requests) != 0 {
		t.Error("run should not be called for invalid input")
	}
}

func TestHandleCancel_RequiresConfirm(t *testing.T) {
	rec := &recordingRun{}
	s := NewServer("test", rec.run)

	result, _ := s.handleCancel(context.Background(), callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("expected error result without confirm")
	}
	if len(rec.requests) != 0 {
		t.Fatal("run should not be called without confirm")
	}

	result, _ = s.handleCancel(context.Background(), callRequest(map[string]any{"confirm": true}))
	if result.IsError {
		t.Fatalf("handleCancel() error result: %s", resultText(t, result))
	}
	if len(rec.requests) != 1 || rec.requests[0].DryRun {
		t.Errorf("requests = %+v, want one real run", rec.requests)
	}
}

func TestHandleCancel_RunFailure(t *testing.T) {
	rec := &recordingRun{err: errors.New("no backends enabled")}
	s := NewServer("test", rec.run)

	result, _ := s.handleCancel(context.Background(), callRequest(map[string]any{"confirm": true}))

	if !result.IsError || !strings.Contains(resultText(t, result), "no backends enabled") {
		t.Errorf("result = %+v", result)
	}
}

func TestHandleGetRun(t *testing.T) {
	rec := &recordingRun{}
	s := NewServer("test", rec.run)

	result, _ := s.handleGetRun(context.Background(), callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("expected error result before any run")
	}

	s.handlePlan(context.Background(), callRequest(map[string]any{"branch": "a"}))
	s.handlePlan(context.Background(), callRequest(map[string]any{"branch": "b"}))

	result, _ = s.handleGetRun(context.Background(), callRequest(map[string]any{"run_id": "run-1"}))
	if result.IsError || !strings.Contains(resultText(t, result), `"branch":"a"`) {
		t.Errorf("get_run(run-1) = %s", resultText(t, result))
	}

	result, _ = s.handleGetRun(context.Background(), callRequest(map[string]any{}))
	if result.IsError || !strings.Contains(resultText(t, result), `"branch":"b"`) {
		t.Errorf("get_run() latest = %s", resultText(t, result))
	}
}
