package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/kibana"
)

// AgentAPI is the slice of the Kibana client the server needs.
type AgentAPI interface {
	ListAgents(ctx context.Context) ([]any, error)
	Converse(ctx context.Context, req kibana.ConverseRequest) (any, error)
}

// Server is a small local REST facade over the Kibana Agent Builder API,
// for callers that would rather hit localhost than carry Kibana credentials.
type Server struct {
	client AgentAPI
	port   int
	logger zerolog.Logger
}

func NewServer(client AgentAPI, port int, logger zerolog.Logger) *Server {
	return &Server{
		client: client,
		port:   port,
		logger: logger,
	}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/agents", s.handleAgents)
		r.Post("/converse", s.handleConverse)
		r.Get("/health", s.handleHealth)
	})

	return r
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router(),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		s.logger.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	s.logger.Info().Int("port", s.port).Msg("starting API server")
	return srv.ListenAndServe()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
