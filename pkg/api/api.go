// Package api serves a Configuration as JSON over HTTP on a Unix domain
// socket. Requests and responses are plain net/http and encoding/json.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lc/strata/internal/buildinfo"
	"github.com/lc/strata/internal/log"
	"github.com/lc/strata/internal/socket"
	"github.com/lc/strata/pkg/strata"
	"github.com/lc/strata/pkg/value"
)

// ValueResponse is the result of a path query.
type ValueResponse struct {
	Path        string `json:"path"`
	Environment string `json:"environment"`
	Value       any    `json:"value"`
}

// ReloadResponse describes the snapshot a reload produced.
type ReloadResponse struct {
	Snapshot  string    `json:"snapshot"`
	Documents int       `json:"documents"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// StatusResponse represents the daemon status.
type StatusResponse struct {
	Snapshot     string        `json:"snapshot"`
	LoadedAt     time.Time     `json:"loaded_at"`
	Files        []string      `json:"files"`
	Environment  string        `json:"environment"`
	Environments []string      `json:"environments"`
	Reloads      int64         `json:"reloads"`
	Uptime       time.Duration `json:"uptime"`
	Version      string        `json:"version"`
	Commit       string        `json:"commit"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Resolver is the part of *strata.Configuration the server uses.
type Resolver interface {
	Lookup(path string, opts ...strata.GetOption) (value.Value, error)
	Reload() error
	Snapshot() *strata.Snapshot
	Environment() string
	Environments() []string
	Reloads() int64
}

var _ Resolver = (*strata.Configuration)(nil)

// Server handles API requests.
type Server struct {
	cfg   Resolver
	start time.Time
	mux   *http.ServeMux
	srv   *http.Server
}

// New returns a Server answering from cfg.
func New(cfg Resolver) *Server {
	s := &Server{
		cfg:   cfg,
		start: time.Now(),
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /v1/value", s.handleValue)
	s.mux.HandleFunc("POST /v1/reload", s.handleReload)
	s.mux.HandleFunc("GET /v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /v1/environments/{name}", s.handleEnvironment)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes, for use with httptest.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on the Unix socket at path until Shutdown.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	log.Info("api: listening", "socket", path)
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	env := q.Get("env")
	if env == "" {
		env = s.cfg.Environment()
	}

	opts := []strata.GetOption{strata.Env(env)}
	if q.Has("default") {
		opts = append(opts, strata.Default(q.Get("default")))
	}
	for _, p := range []struct {
		name string
		opt  func(bool) strata.GetOption
	}{
		{"throw", strata.Throw},
		{"envvars", strata.EnvironmentVariables},
	} {
		if !q.Has(p.name) {
			continue
		}
		b, err := strconv.ParseBool(q.Get(p.name))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+p.name+": "+err.Error())
			return
		}
		opts = append(opts, p.opt(b))
	}

	v, err := s.cfg.Lookup(path, opts...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{Path: path, Environment: env, Value: v.Interface()})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.cfg.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := s.cfg.Snapshot()
	writeJSON(w, http.StatusOK, ReloadResponse{
		Snapshot:  snap.ID,
		Documents: snap.Documents,
		LoadedAt:  snap.LoadedAt,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.cfg.Snapshot()
	writeJSON(w, http.StatusOK, StatusResponse{
		Snapshot:     snap.ID,
		LoadedAt:     snap.LoadedAt,
		Files:        snap.Sources,
		Environment:  s.cfg.Environment(),
		Environments: s.cfg.Environments(),
		Reloads:      s.cfg.Reloads(),
		Uptime:       time.Since(s.start),
		Version:      buildinfo.Version,
		Commit:       buildinfo.Commit,
	})
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	v, ok := s.cfg.Snapshot().Environment(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown environment "+strconv.Quote(name))
		return
	}
	writeJSON(w, http.StatusOK, v.Interface())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, strata.ErrNotFound),
		errors.Is(err, strata.ErrNotTraversable),
		errors.Is(err, strata.ErrUnknownEnvironment),
		errors.Is(err, strata.ErrUnresolved):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Warn("api: encoding response failed", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Error: "encoding response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug("api: writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
