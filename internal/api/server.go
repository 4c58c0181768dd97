package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/id/uuid"
	"github.com/JakeFAU/querydesk/internal/identity"
	"github.com/JakeFAU/querydesk/internal/metrics"
	"github.com/JakeFAU/querydesk/internal/queries"
)

// QueryService is the set of operations the server exposes.
type QueryService interface {
	Submit(ctx context.Context, raw, caller string) (queries.SubmitResult, error)
	FindMatches(ctx context.Context, value, caller string) (queries.MatchResult, error)
	Flag(ctx context.Context, req queries.FlagRequest, caller string) (queries.FlagResult, error)
	LookupRating(ctx context.Context, target string) (queries.RatingResult, error)
	Ready(ctx context.Context) error
}

// RequestIDGenerator mints ids for requests that arrive without one.
type RequestIDGenerator interface {
	RequestID() string
}

// Options tunes the server middleware.
type Options struct {
	APIKey         string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// RequestIDs defaults to random UUIDs.
	RequestIDs RequestIDGenerator
}

// Server wires HTTP handlers to the query service.
type Server struct {
	router   chi.Router
	svc      QueryService
	identity identity.Provider
	logger   *zap.Logger
}

const maxBodyBytes = 1 << 20

// NewServer constructs a Server with middleware and routes.
func NewServer(svc QueryService, ident identity.Provider, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ids := opts.RequestIDs
	if ids == nil {
		ids = uuid.New()
	}
	s := &Server{
		svc:      svc,
		identity: ident,
		logger:   logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(ids))
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(timeout))
		if opts.APIKey != "" {
			r.Use(apiKeyMiddleware(opts.APIKey))
		}
		r.Post("/queries", s.submitQuery)
		r.Get("/matches", s.findMatches)
		r.Post("/flags", s.flagTask)
		r.Get("/ratings", s.checkRating)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) caller(r *http.Request) string {
	if s.identity == nil {
		return ""
	}
	return s.identity.CurrentUserEmail(r)
}

type submitRequest struct {
	Query string `json:"query"`
}

func (s *Server) submitQuery(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Submit(r.Context(), req.Query, s.caller(r))
	if err != nil {
		s.logger.Error("submit failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) findMatches(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	if strings.TrimSpace(value) == "" {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	res, err := s.svc.FindMatches(r.Context(), value, s.caller(r))
	if err != nil {
		s.logger.Error("find matches failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read matches")
		return
	}
	if res.Error != "" {
		writeJSON(w, http.StatusNotFound, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) flagTask(w http.ResponseWriter, r *http.Request) {
	var req queries.FlagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TargetSentence) == "" {
		writeError(w, http.StatusBadRequest, "targetSentence is required")
		return
	}
	res, err := s.svc.Flag(r.Context(), req, s.caller(r))
	if err != nil {
		s.logger.Error("flag failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to flag task")
		return
	}
	status := http.StatusOK
	if res.Error != "" {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func (s *Server) checkRating(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if strings.TrimSpace(target) == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	res, err := s.svc.LookupRating(r.Context(), target)
	if err != nil {
		s.logger.Error("rating lookup failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to look up rating")
		return
	}
	status := http.StatusOK
	if res.Error != "" {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
