// Package server implements the HTTP API for task submission, instruction
// execution, and session log polling.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/session"
)

// Server is the deskpilot HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *zap.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Deps holds all dependencies for creating a Server.
type Deps struct {
	Generator InstructionGenerator
	Executor  InstructionExecutor
	Store     *session.Store
	Probes    Probes
	Logger    *zap.Logger
	Config    config.ServerConfig
}

// New creates an HTTP server with all routes configured.
func New(deps Deps) *Server {
	h := NewHandlers(deps.Generator, deps.Executor, deps.Store, deps.Probes, deps.Logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", h.HandleGenerate)
	mux.HandleFunc("POST /api/execute", h.HandleExecute)
	mux.HandleFunc("GET /api/logs/{session_id}", h.HandleLogs)
	mux.HandleFunc("POST /api/close-browser/{session_id}", h.HandleCloseBrowser)
	mux.HandleFunc("GET /api/status", h.HandleStatus)
	mux.HandleFunc("GET /api/examples", h.HandleExamples)
	mux.HandleFunc("GET /health", h.HandleHealth)

	var handler http.Handler = mux
	handler = loggingMiddleware(deps.Logger, handler)
	handler = recoveryMiddleware(deps.Logger, handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", deps.Config.Port),
			Handler:      handler,
			ReadTimeout:  deps.Config.ReadTimeout,
			WriteTimeout: deps.Config.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   deps.Logger.Named("server"),
	}
}

// Start runs the server until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(shutdownCtx)
}
