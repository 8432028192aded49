package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"trackprogress/internal/elevation"
	"trackprogress/internal/progress"
)

// Calculator is the part of progress.Engine the API needs.
type Calculator interface {
	Calculate(ctx context.Context) progress.Result
	IsReady() bool
	Profile() elevation.Profile
}

type progressResponse struct {
	Status string            `json:"status"`
	Fields map[string]string `json:"fields"`
	Result progress.Result   `json:"result"`
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// NewHandler serves:
//
//	GET /progress        every field, rendered as strings
//	GET /progress/{key}  one field as plain text
//	GET /profile         the active route's elevation profile
//	GET /healthz         readiness
func NewHandler(c Calculator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /progress", func(w http.ResponseWriter, r *http.Request) {
		res := c.Calculate(r.Context())
		writeJSON(w, http.StatusOK, progressResponse{
			Status: res.Status.String(),
			Fields: res.Values(),
			Result: res,
		})
	})
	mux.HandleFunc("GET /progress/{key}", func(w http.ResponseWriter, r *http.Request) {
		f, ok := progress.LookupField(r.PathValue("key"))
		if !ok {
			http.Error(w, "unknown field", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(f.Get(c.Calculate(r.Context()))))
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		p := c.Profile()
		if p == nil {
			p = elevation.Profile{}
		}
		writeJSON(w, http.StatusOK, p)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if c.IsReady() {
			writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: true})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// Serve starts the API server on addr in the background.
func Serve(addr string, h http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("api server error: %v", err)
		}
	}()
	log.Printf("api listening on %s", addr)
	return srv
}
