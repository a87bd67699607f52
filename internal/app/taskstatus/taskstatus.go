package taskstatus

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// ServiceConfig is the configuration for the task status service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TaskStatus"})
	return nil
}

// Service retrieves detailed task status.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new task status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	OwnerID string
	TaskID  string
}

// Status is the detailed view of one task.
type Status struct {
	Task model.Task
	// Steps is the ordered step list, empty until generation runs.
	Steps []model.Step
	// Deliverable is set once assembly produced the final document.
	Deliverable *model.Deliverable
}

// Status retrieves one task with its steps and, when present, its
// deliverable.
func (s *Service) Status(ctx context.Context, req Request) (*Status, error) {
	task, err := s.repo.GetTask(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}

	st := &Status{Task: *task, Steps: steps}

	deliverable, err := s.repo.GetDeliverableByTask(ctx, req.OwnerID, req.TaskID)
	switch {
	case err == nil:
		st.Deliverable = deliverable
	case errors.Is(err, model.ErrNotFound):
	default:
		return nil, fmt.Errorf("could not get deliverable: %w", err)
	}

	return st, nil
}
