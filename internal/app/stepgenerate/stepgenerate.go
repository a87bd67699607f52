// Package stepgenerate decomposes a task into its persisted step sequence.
package stepgenerate

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/stepgen"
	"github.com/slok/stepflow/internal/storage"
)

// ServiceConfig is the configuration for the step generation service.
type ServiceConfig struct {
	Repository storage.Repository
	Generator  *stepgen.Generator
	Notifier   feed.Notifier
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Generator == nil {
		return fmt.Errorf("generator is required")
	}
	if c.Notifier == nil {
		c.Notifier = feed.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.StepGenerate"})
	return nil
}

// Service handles step generation business logic.
type Service struct {
	repo     storage.Repository
	gen      *stepgen.Generator
	notifier feed.Notifier
	logger   log.Logger
}

// NewService creates a new step generation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		gen:      cfg.Generator,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the step generation parameters.
type Request struct {
	OwnerID string
	TaskID  string
	Context model.BusinessContext
}

// Generate decomposes the task into steps and persists them. Idempotent:
// when the task already has steps the existing sequence is returned
// untouched. Completed tasks are closed to generation.
func (s *Service) Generate(ctx context.Context, req Request) ([]model.Step, error) {
	task, err := s.repo.GetTask(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	if task.Status == model.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, model.ErrTaskClosed)
	}

	existing, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debugf("Task %s already has %d steps, keeping them", task.ID, len(existing))
		return existing, nil
	}

	templates, err := s.gen.Generate(ctx, *task, req.Context)
	if err != nil {
		return nil, fmt.Errorf("could not generate step templates: %w", err)
	}

	now := time.Now().UTC()
	steps := make([]model.Step, 0, len(templates))
	for _, t := range templates {
		steps = append(steps, model.Step{
			ID:                 ulid.Make().String(),
			TaskID:             task.ID,
			StepNumber:         t.StepNumber,
			Title:              t.Title,
			Description:        t.Description,
			InputType:          t.InputType,
			Guidance:           t.Guidance,
			CompletionStatus:   model.StepStatusPending,
			UserInputData:      map[string]any{},
			ValidationCriteria: t.ValidationCriteria,
			AssistanceLog:      []model.AssistEntry{},
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}

	if err := s.repo.CreateSteps(ctx, steps); err != nil {
		return nil, fmt.Errorf("could not save steps: %w", err)
	}

	if task.Status == model.TaskStatusPending {
		task.Status = model.TaskStatusInProgress
		task.UpdatedAt = now
		if err := s.repo.UpdateTask(ctx, *task); err != nil {
			return nil, fmt.Errorf("could not update task status: %w", err)
		}
	}

	s.logger.Infof("Generated %d steps for task %s", len(steps), task.ID)
	s.notifier.Publish(feed.Event{
		Kind:    feed.EventStepsCreated,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
	})

	return steps, nil
}
