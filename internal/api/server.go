package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tankobon/internal/config"
	"tankobon/internal/jobs"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/providers"
	"tankobon/internal/resolver"
	"tankobon/internal/services"
)

// longPollTimeout keeps follow requests inside the server write timeout.
const longPollTimeout = 25 * time.Second

// Submitter starts a background resolution.
type Submitter interface {
	Submit(ctx context.Context, seriesID string, query metadata.MatchQuery) (uuid.UUID, error)
}

// JobTracker exposes live job state.
type JobTracker interface {
	MetadataJobEvents(id uuid.UUID) (*jobs.EventFlow, bool)
	Job(ctx context.Context, id uuid.UUID) (*jobs.MetadataJob, error)
}

// ResultReader loads stored resolution results.
type ResultReader interface {
	ReadSeries(seriesID string) (*resolver.Result, error)
}

// Deps are the collaborators behind the HTTP handlers. Results and Logs
// are optional.
type Deps struct {
	Resolver Submitter
	Tracker  JobTracker
	Store    jobs.Store
	Registry *providers.Registry
	Results  ResultReader
	Logs     *logging.StreamHub
}

// Server is the HTTP API server.
type Server struct {
	bind   string
	token  string
	deps   Deps
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds a server bound to cfg.Server.Bind.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		bind:   strings.TrimSpace(cfg.Server.Bind),
		token:  strings.TrimSpace(cfg.Server.APIToken),
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "api-server"),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request-id and auth middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/resolve", s.handleResolve)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("DELETE /api/jobs", s.handleDeleteJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("GET /api/results/{seriesID}", s.handleResult)
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	return s.withRequestID(authMiddleware(s.token, mux))
}

// Start listens on the configured address and serves until ctx ends or Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "start", "server.bind is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := services.WithRequestID(r.Context(), requestID)
		s.logger.Debug("api request",
			logging.String(logging.FieldCorrelationID, requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps error markers onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, jobs.ErrTrackerClosed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("api request failed",
			logging.Error(err),
			logging.ErrorKind(err),
		)
	}
	s.writeError(w, status, err.Error())
}
