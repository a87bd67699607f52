// Package api exposes the engine over HTTP. The caller's identity comes
// from the X-Owner-Id header, put there by the identity-aware proxy in
// front of the service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/app/assist"
	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/app/taskcreate"
	"github.com/slok/stepflow/internal/app/tasklist"
	"github.com/slok/stepflow/internal/app/taskstatus"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/log"
)

// ServerConfig is the configuration for the API server.
type ServerConfig struct {
	ListenAddr   string
	TaskCreate   *taskcreate.Service
	TaskList     *tasklist.Service
	TaskStatus   *taskstatus.Service
	StepGenerate *stepgenerate.Service
	Progress     *progress.Service
	// Assist and Assemble are optional: without a completion service those
	// endpoints answer that the feature is unavailable.
	Assist   *assist.Service
	Assemble *assemble.Service
	// Hub is optional, when nil the websocket feed endpoint is disabled.
	Hub    *feed.Hub
	Logger log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	switch {
	case c.TaskCreate == nil:
		return fmt.Errorf("task create service is required")
	case c.TaskList == nil:
		return fmt.Errorf("task list service is required")
	case c.TaskStatus == nil:
		return fmt.Errorf("task status service is required")
	case c.StepGenerate == nil:
		return fmt.Errorf("step generate service is required")
	case c.Progress == nil:
		return fmt.Errorf("progress service is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.Server"})
	return nil
}

// Server is the HTTP front of the engine.
type Server struct {
	server *http.Server

	taskCreate   *taskcreate.Service
	taskList     *tasklist.Service
	taskStatus   *taskstatus.Service
	stepGenerate *stepgenerate.Service
	progress     *progress.Service
	assist       *assist.Service
	assemble     *assemble.Service
	hub          *feed.Hub
	upgrader     websocket.Upgrader
	logger       log.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		taskCreate:   cfg.TaskCreate,
		taskList:     cfg.TaskList,
		taskStatus:   cfg.TaskStatus,
		stepGenerate: cfg.StepGenerate,
		progress:     cfg.Progress,
		assist:       cfg.Assist,
		assemble:     cfg.Assemble,
		hub:          cfg.Hub,
		logger:       cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Websocket connections are long lived.
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/tasks", s.ownerHandler(s.handleTaskCreate))
	mux.HandleFunc("GET /api/v1/tasks", s.ownerHandler(s.handleTaskList))
	mux.HandleFunc("GET /api/v1/tasks/{id}", s.ownerHandler(s.handleTaskShow))
	mux.HandleFunc("POST /api/v1/tasks/{id}/steps", s.ownerHandler(s.handleStepGenerate))
	mux.HandleFunc("GET /api/v1/tasks/{id}/steps", s.ownerHandler(s.handleStepList))
	mux.HandleFunc("POST /api/v1/tasks/{id}/select", s.ownerHandler(s.handleStepSelect))
	mux.HandleFunc("POST /api/v1/tasks/{id}/assemble", s.ownerHandler(s.handleAssemble))
	mux.HandleFunc("PATCH /api/v1/steps/{id}", s.ownerHandler(s.handleStepUpdate))
	mux.HandleFunc("POST /api/v1/steps/{id}/validate", s.ownerHandler(s.handleStepValidate))
	mux.HandleFunc("POST /api/v1/steps/{id}/skip", s.ownerHandler(s.handleStepSkip))
	mux.HandleFunc("POST /api/v1/steps/{id}/ask", s.ownerHandler(s.handleAsk))

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.handleFeed)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("API listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server error: %w", err)
	case <-ctx.Done():
		s.logger.Infof("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API shutdown error: %w", err)
		}
		return nil
	}
}
