package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
)

func sampleReport() *orchestrator.Report {
	rust := provider.Repo{Owner: "rust-lang", Name: "rust"}
	cargo := provider.Repo{Owner: "rust-lang", Name: "cargo"}

	return &orchestrator.Report{
		RunID:     "0190c0de-0000-7000-8000-000000000001",
		Branch:    "auto",
		StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		TimedOut:  true,
		Backends: []orchestrator.BackendReport{
			{
				Name:     provider.Travis,
				Enabled:  true,
				State:    orchestrator.StateDone,
				Duration: 1200 * time.Millisecond,
				Cancellations: []orchestrator.Cancellation{
					{
						Backend: provider.Travis,
						Repo:    rust,
						Build:   provider.Build{ID: "100", Number: 10, RawStatus: "started"},
						Reason:  "stale",
					},
					{
						Backend: provider.Travis,
						Repo:    rust,
						Build:   provider.Build{ID: "101", Number: 11, RawStatus: "started"},
						Reason:  "job-failed",
						Job:     "dist-linux",
						Err:     errors.New("POST https://api.travis-ci.com/builds/11/cancel: not a 2xx code: 500\n\nboom"),
					},
				},
			},
			{
				Name:  provider.AppVeyor,
				State: orchestrator.StateDone,
			},
			{
				Name:    provider.Azure,
				Enabled: true,
				State:   orchestrator.StateFetching,
				Errors: []orchestrator.RepoError{
					{Repo: cargo, Op: orchestrator.OpList, Err: errors.New("Authentication failed\n\nHint: set AZURE_PIPELINES_TOKEN")},
				},
			},
		},
	}
}

func TestWriteText_Golden(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport(), Options{}); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "text_report", buf.Bytes())
}

func TestWriteText_NothingCancelled(t *testing.T) {
	r := &orchestrator.Report{
		RunID:    "run",
		Branch:   "master",
		DryRun:   true,
		Backends: []orchestrator.BackendReport{{Name: provider.Travis, Enabled: true, State: orchestrator.StateDone}},
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, r, Options{}); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"(dry run)", "no builds cancelled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "timed out") {
		t.Errorf("unexpected timeout line:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Join(strings.Fields(line), " ") == "BACKEND REPO OP ERROR" {
			t.Errorf("unexpected error table:\n%s", out)
		}
	}
}

func TestWriteText_ColorKeepsAlignment(t *testing.T) {
	var plainBuf, colorBuf bytes.Buffer
	if err := WriteText(&plainBuf, sampleReport(), Options{}); err != nil {
		t.Fatal(err)
	}
	if err := WriteText(&colorBuf, sampleReport(), Options{Color: true}); err != nil {
		t.Fatal(err)
	}

	plainLines := strings.Split(plainBuf.String(), "\n")
	colorLines := strings.Split(colorBuf.String(), "\n")
	if len(plainLines) != len(colorLines) {
		t.Fatalf("line count differs: %d vs %d", len(plainLines), len(colorLines))
	}
	for i := range plainLines {
		if got, want := VisualWidth(colorLines[i]), VisualWidth(plainLines[i]); got != want {
			t.Errorf("line %d width = %d, want %d", i, got, want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var doc struct {
		RunID    string `json:"run_id"`
		TimedOut bool   `json:"timed_out"`
		Backends []struct {
			Name          string `json:"name"`
			State         string `json:"state"`
			Cancellations []struct {
				BuildNumber int64  `json:"build_number"`
				Error       string `json:"error"`
			} `json:"cancellations"`
			Errors []struct {
				Repo string `json:"repo"`
				Op   string `json:"op"`
			} `json:"errors"`
		} `json:"backends"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, buf.String())
	}

	if doc.RunID != "0190c0de-0000-7000-8000-000000000001" || !doc.TimedOut {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Backends) != 3 {
		t.Fatalf("got %d backends", len(doc.Backends))
	}
	if doc.Backends[2].State != "fetching" {
		t.Errorf("azure state = %q, want fetching", doc.Backends[2].State)
	}
	if len(doc.Backends[0].Cancellations) != 2 || doc.Backends[0].Cancellations[1].Error == "" {
		t.Errorf("travis cancellations = %+v", doc.Backends[0].Cancellations)
	}
	if doc.Backends[2].Errors[0].Repo != "rust-lang/cargo" || doc.Backends[2].Errors[0].Op != "list" {
		t.Errorf("azure errors = %+v", doc.Backends[2].Errors)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleReport(), "xml", Options{}); err == nil {
		t.Error("Write() with unknown format should fail")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
		{"日本語テキスト", 7, "日本..."},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("a\n\nHint:  b\tc"); got != "a Hint: b c" {
		t.Errorf("OneLine() = %q", got)
	}
}
