package debug

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("cancelbot_runs_total 1\n"))
	})
	h := New(metrics, func() any { return map[string]string{"run_id": "abc"} })

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, ""},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "cancelbot_runs_total"},
		{"status", http.MethodGet, "/status", http.StatusOK, `"run_id":"abc"`},
		{"pprof index", http.MethodGet, "/debug/pprof/", http.StatusOK, ""},
		{"metrics wrong method", http.MethodPost, "/metrics", http.StatusMethodNotAllowed, ""},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path)
			if rec.Code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStatus_NoRunYet(t *testing.T) {
	h := New(http.NotFoundHandler(), func() any { return nil })

	if rec := serve(h, http.MethodGet, "/status"); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
