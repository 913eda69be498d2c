package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Do_SetsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("User-Agent = %q, want %q", got, UserAgent)
		}
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %q, want %q", got, "token secret")
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"status":"Cancelling"}` {
			t.Errorf("body = %s", body)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, nil, nil, Header{Key: "Authorization", Value: "token secret"})
	resp, err := client.Do(context.Background(), http.MethodPatch, "/builds/1",
		[]byte(`{"status":"Cancelling"}`), Header{Key: "Content-Type", Value: "application/json"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

func TestClient_Do_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	if _, err := client.Do(context.Background(), http.MethodDelete, "/builds/a/b/1.0.1", nil); err != nil {
		t.Fatalf("Do() error = %v, want nil for 204", err)
	}
}

func TestClient_Do_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	_, err := client.Do(context.Background(), http.MethodPost, "/builds/7/cancel", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T, want *HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", statusErr.StatusCode)
	}
	if statusErr.Body != `{"message":"forbidden"}` {
		t.Errorf("Body = %q", statusErr.Body)
	}
	if statusErr.URL != server.URL+"/builds/7/cancel" {
		t.Errorf("URL = %q", statusErr.URL)
	}
}

func TestClient_GetJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	var v struct{ Builds []int }
	err := client.GetJSON(context.Background(), "/repos/a/b/builds", &v)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decodeErr.Body != "not json" {
		t.Errorf("Body = %q, want %q", decodeErr.Body, "not json")
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url, nil, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/x", nil)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestClient_URL(t *testing.T) {
	client := New("https://dev.azure.com/", nil, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/org/repo/_apis/build/builds", "https://dev.azure.com/org/repo/_apis/build/builds"},
		{"org/repo", "https://dev.azure.com/org/repo"},
		{"https://dev.azure.com/org/_apis/timeline/1", "https://dev.azure.com/org/_apis/timeline/1"},
		{"http://localhost:1234/timeline", "http://localhost:1234/timeline"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := client.URL(tt.path); got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClient_Do_SanitizesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("\x1b[31mupstream\x1b[0m down\x00\n"))
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/", nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *HTTPStatusError", err)
	}
	if statusErr.Body != "upstream down" {
		t.Errorf("Body = %q, want %q", statusErr.Body, "upstream down")
	}
}
