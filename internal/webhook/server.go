package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/mattjoyce/orderhook/internal/metrics"
	"github.com/mattjoyce/orderhook/internal/relay"
)

// Server represents the webhook HTTP server.
type Server struct {
	config Config
	relay  Relayer
	logger *slog.Logger
	server *http.Server
}

// New creates a new webhook server instance.
func New(config Config, relay Relayer, logger *slog.Logger) *Server {
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	return &Server{
		config: config,
		relay:  relay,
		logger: logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the configured router. Used directly by the Lambda adapter.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.config.CORS {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodPost},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: false,
		}).Handler)
	}

	if s.config.Health {
		r.Get("/healthz", s.handleHealth)
	}
	if s.config.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// The method is not checked; callers are expected to POST.
	r.HandleFunc(s.config.Path, s.handleRelay)

	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID(r),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleRelay passes the request to the relay and writes its response.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	id := requestID(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("failed to read request body", "request_id", id, "error", err)
		metrics.ObserveOutcome(string(relay.OutcomeInvalidJSON))
		s.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: relay.MsgInvalidJSON})
		return
	}

	resp := s.relay.Handle(r.Context(), relay.Request{
		Method:    r.Method,
		Header:    r.Header,
		Body:      body,
		RequestID: id,
	})
	metrics.ObserveOutcome(string(resp.Outcome))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// requestID picks the correlation id: the Lambda invocation id when running
// in Lambda, else the id assigned by the RequestID middleware, else a new UUID.
func requestID(r *http.Request) string {
	if lc, ok := lambdacontext.FromContext(r.Context()); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
