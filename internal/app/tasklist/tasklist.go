package tasklist

import (
	"context"
	"fmt"

	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// ServiceConfig is the configuration for the task listing service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TaskList"})
	return nil
}

// Service lists the tasks of an owner.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new task listing service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the task listing parameters.
type Request struct {
	OwnerID string
}

// List returns the owner's tasks, newest first.
func (s *Service) List(ctx context.Context, req Request) ([]model.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	s.logger.Debugf("Listed %d tasks", len(tasks))

	return tasks, nil
}
