// Package progress drives a task's step sequence: listing and selecting
// steps under the ordering lock, recording user input, validating steps and
// rolling the results up into task progress and completion.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// Enqueuer queues the deliverable assembly of a completed task.
type Enqueuer interface {
	Enqueue(ownerID, taskID string) bool
}

// ServiceConfig is the configuration for the progression service.
type ServiceConfig struct {
	Repository storage.Repository
	// Completion is optional, used only by AI-assisted validation. When nil
	// AI-assisted validation degrades to the automatic criteria check.
	Completion completion.Client
	// Assembly is optional. When set, tasks that complete get their
	// deliverable assembly queued automatically.
	Assembly Enqueuer
	Notifier feed.Notifier
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Notifier == nil {
		c.Notifier = feed.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Progress"})
	return nil
}

// Service handles step progression business logic.
type Service struct {
	repo     storage.Repository
	client   completion.Client
	assembly Enqueuer
	notifier feed.Notifier
	logger   log.Logger
}

// NewService creates a new progression service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		client:   cfg.Completion,
		assembly: cfg.Assembly,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}, nil
}

// Request identifies a task of an owner.
type Request struct {
	OwnerID string
	TaskID  string
}

// Snapshot is the ordered view of a task's steps.
type Snapshot struct {
	Task  model.Task
	Steps []model.Step
	// CurrentIndex is the index of the step the user is working on: the
	// first non-terminal step, or the last step once all are terminal.
	CurrentIndex int
}

// List returns the ordered step snapshot of a task.
func (s *Service) List(ctx context.Context, req Request) (*Snapshot, error) {
	task, err := s.repo.GetTask(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}

	return &Snapshot{
		Task:         *task,
		Steps:        steps,
		CurrentIndex: currentIndex(steps),
	}, nil
}

// SelectRequest represents the step selection parameters.
type SelectRequest struct {
	OwnerID string
	TaskID  string
	Index   int
}

// Select returns the step at the requested index when the ordering lock
// allows it. Selecting a locked or out-of-range step is a no-op, not an
// error: the current step is returned instead.
func (s *Service) Select(ctx context.Context, req SelectRequest) (*model.Step, error) {
	steps, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("task %s has no steps: %w", req.TaskID, model.ErrNotFound)
	}

	if model.CanSelect(steps, req.Index) {
		step := steps[req.Index]
		return &step, nil
	}

	s.logger.Debugf("Selection of step index %d on task %s denied by the ordering lock", req.Index, req.TaskID)
	step := steps[currentIndex(steps)]
	return &step, nil
}

// Next selects the step after the current one.
func (s *Service) Next(ctx context.Context, req Request) (*model.Step, error) {
	return s.move(ctx, req, +1)
}

// Previous selects the step before the current one.
func (s *Service) Previous(ctx context.Context, req Request) (*model.Step, error) {
	return s.move(ctx, req, -1)
}

func (s *Service) move(ctx context.Context, req Request, delta int) (*model.Step, error) {
	steps, err := s.repo.ListSteps(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("task %s has no steps: %w", req.TaskID, model.ErrNotFound)
	}

	return s.Select(ctx, SelectRequest{
		OwnerID: req.OwnerID,
		TaskID:  req.TaskID,
		Index:   currentIndex(steps) + delta,
	})
}

// currentIndex is the first non-terminal step index, clamped to the last
// step once every step is terminal.
func currentIndex(steps []model.Step) int {
	idx := model.UnlockedIndex(steps)
	if idx >= len(steps) && len(steps) > 0 {
		return len(steps) - 1
	}
	return idx
}

// loadStep fetches a step with its owning task and its position within the
// ordered sequence.
func (s *Service) loadStep(ctx context.Context, ownerID, stepID string) (*model.Task, []model.Step, int, error) {
	step, err := s.repo.GetStep(ctx, ownerID, stepID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("could not get step: %w", err)
	}

	task, err := s.repo.GetTask(ctx, ownerID, step.TaskID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("could not get task: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, ownerID, step.TaskID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("could not list steps: %w", err)
	}

	for i, st := range steps {
		if st.ID == stepID {
			return task, steps, i, nil
		}
	}

	// The step exists but is missing from its own task's listing, the store
	// is inconsistent.
	return nil, nil, 0, fmt.Errorf("step %s not in task %s listing: %w", stepID, step.TaskID, model.ErrStore)
}

// finishTask marks the task completed, queues the deliverable assembly and
// publishes the completion event. Steps must all be terminal already.
func (s *Service) finishTask(ctx context.Context, task model.Task, steps []model.Step) error {
	task.Status = model.TaskStatusCompleted
	task.ProgressPercentage = model.Progress(steps)
	if s.assembly != nil {
		task.DeliverableStatus = model.DeliverableStatusPending
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("could not complete task: %w", err)
	}

	s.logger.Infof("Task %s completed", task.ID)
	s.notifier.Publish(feed.Event{
		Kind:    feed.EventTaskUpdated,
		OwnerID: task.OwnerID,
		TaskID:  task.ID,
	})

	if s.assembly != nil && !s.assembly.Enqueue(task.OwnerID, task.ID) {
		s.logger.Warningf("Assembly queue full, deliverable for task %s needs a manual retry", task.ID)
		task.DeliverableStatus = model.DeliverableStatusFailed
		task.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("could not flag the failed assembly: %w", err)
		}
	}

	return nil
}
