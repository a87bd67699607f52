// Package assemble produces the final deliverable document of a completed
// task from the data recorded in its steps.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// ServiceConfig is the configuration for the assembly service.
type ServiceConfig struct {
	Repository storage.Repository
	Completion completion.Client
	Notifier   feed.Notifier
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Completion == nil {
		return fmt.Errorf("completion client is required")
	}
	if c.Notifier == nil {
		c.Notifier = feed.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Assemble"})
	return nil
}

// Service handles deliverable assembly business logic.
type Service struct {
	repo     storage.Repository
	client   completion.Client
	notifier feed.Notifier
	logger   log.Logger
}

// NewService creates a new assembly service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		client:   cfg.Completion,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the assembly parameters.
type Request struct {
	OwnerID string
	TaskID  string
}

// Assemble builds and persists the deliverable of a finished task.
// Idempotent: an existing deliverable is returned as-is. A failed attempt
// marks the task's deliverable as failed and is retryable; the task itself
// stays completed no matter what.
func (s *Service) Assemble(ctx context.Context, req Request) (*model.Deliverable, error) {
	task, err := s.repo.GetTask(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	existing, err := s.repo.GetDeliverableByTask(ctx, req.OwnerID, req.TaskID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not check existing deliverable: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}
	if !model.TaskFinished(steps) {
		return nil, fmt.Errorf("task %s still has unfinished steps: %w", task.ID, model.ErrNotValid)
	}

	content, err := s.compose(ctx, *task, steps)
	if err != nil {
		s.markDeliverable(ctx, *task, model.DeliverableStatusFailed)
		return nil, fmt.Errorf("could not compose deliverable: %w", err)
	}

	deliverable := model.Deliverable{
		ID:        ulid.Make().String(),
		TaskID:    task.ID,
		OwnerID:   req.OwnerID,
		Title:     fmt.Sprintf("Deliverable: %s", task.Title),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDeliverable(ctx, deliverable); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			// Lost the race against a concurrent assembly, theirs wins.
			return s.repo.GetDeliverableByTask(ctx, req.OwnerID, req.TaskID)
		}
		s.markDeliverable(ctx, *task, model.DeliverableStatusFailed)
		return nil, fmt.Errorf("could not save deliverable: %w", err)
	}

	s.markDeliverable(ctx, *task, model.DeliverableStatusReady)
	s.logger.Infof("Assembled deliverable for task %s", task.ID)
	s.notifier.Publish(feed.Event{
		Kind:    feed.EventDeliverableReady,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
	})

	return &deliverable, nil
}

// markDeliverable updates the task's deliverable status, best effort: a
// store failure here is logged, never propagated over the assembly result.
func (s *Service) markDeliverable(ctx context.Context, task model.Task, status model.DeliverableStatus) {
	task.DeliverableStatus = status
	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		s.logger.Errorf("Could not mark task %s deliverable as %s: %s", task.ID, status, err)
	}
}

const assembleSystemPrompt = `You write the final deliverable document for a business task completed step by step by an independent cultural creator. Use ONLY the recorded step data, do not invent numbers or facts.

Structure the document in markdown with exactly these sections:
1. Executive summary
2. Development, one subsection per completed step with its findings
3. Recommendations
4. Next steps

Write in the language of the recorded data. Be concrete.`

// compose renders the ordered step contributions into the document prompt
// and asks the completion service for the final text.
func (s *Service) compose(ctx context.Context, task model.Task, steps []model.Step) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "TASK: %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION: %s\n", task.Description)
	}
	b.WriteString("\nCOMPLETED STEPS, IN ORDER:\n")
	for _, st := range steps {
		if st.CompletionStatus != model.StepStatusCompleted {
			continue
		}
		fmt.Fprintf(&b, "\nStep %d: %s\n", st.StepNumber, st.Title)
		fmt.Fprintf(&b, "Recorded data: %v\n", st.UserInputData)
	}

	content, err := s.client.Complete(ctx, assembleSystemPrompt, []completion.Message{
		{Role: completion.RoleUser, Content: b.String()},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty document: %w", model.ErrExternalService)
	}

	return content, nil
}
