// Package debug serves the operational endpoints of long-running processes.
package debug

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
)

func healthHandler(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK) // nolint: gosec, gas
}

// StatusFunc returns the value rendered by /status, nil while nothing is known yet.
type StatusFunc func() any

// New returns the debug server handlers: /metrics, /health, /status and pprof.
func New(metrics http.Handler, status StatusFunc) http.Handler {
	m := mux.NewRouter()

	m.Handle("/metrics", metrics).Methods(http.MethodGet)
	m.HandleFunc("/health", healthHandler)
	m.HandleFunc("/status", statusHandler(status)).Methods(http.MethodGet)

	m.HandleFunc("/debug/pprof/", pprof.Index)
	m.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	m.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.HandleFunc("/debug/pprof/trace", pprof.Trace)
	m.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)

	return m
}

func statusHandler(status StatusFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var v any
		if status != nil {
			v = status()
		}
		if v == nil {
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(v) // nolint: errcheck
	}
}
