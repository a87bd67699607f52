package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/model"
)

// UpdateRequest represents the step data update parameters.
type UpdateRequest struct {
	OwnerID string
	StepID  string
	// Data is merged key-by-key into the step's input document,
	// last write wins.
	Data map[string]any
}

// Update merges user input into the step's data document. Recording data
// on a pending step moves it to in_progress; no validation happens here.
// Steps of a completed task and steps behind the ordering lock are closed
// to updates.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*model.Step, error) {
	task, steps, idx, err := s.loadStep(ctx, req.OwnerID, req.StepID)
	if err != nil {
		return nil, err
	}

	if task.Status == model.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, model.ErrTaskClosed)
	}
	if !model.CanSelect(steps, idx) {
		return nil, fmt.Errorf("step %d of task %s is not reachable yet: %w", steps[idx].StepNumber, task.ID, model.ErrLockedStep)
	}

	step := steps[idx]
	if step.UserInputData == nil {
		step.UserInputData = map[string]any{}
	}
	for k, v := range req.Data {
		step.UserInputData[k] = v
	}
	if step.CompletionStatus == model.StepStatusPending {
		step.CompletionStatus = model.StepStatusInProgress
	}
	step.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateStep(ctx, req.OwnerID, step); err != nil {
		return nil, fmt.Errorf("could not save step data: %w", err)
	}

	s.logger.Debugf("Updated data of step %s (task %s)", step.ID, task.ID)
	s.notifier.Publish(feed.Event{
		Kind:    feed.EventStepUpdated,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
		StepID:  step.ID,
	})

	return &step, nil
}

// SkipRequest represents the step skip parameters.
type SkipRequest struct {
	OwnerID string
	StepID  string
}

// Skip marks the current step as skipped. Skipped is terminal: it opens
// the next step but the skipped one no longer counts towards progress.
// Skipping an already-skipped step is a no-op.
func (s *Service) Skip(ctx context.Context, req SkipRequest) (*model.Step, error) {
	task, steps, idx, err := s.loadStep(ctx, req.OwnerID, req.StepID)
	if err != nil {
		return nil, err
	}

	step := steps[idx]
	if step.CompletionStatus == model.StepStatusSkipped {
		return &step, nil
	}

	if task.Status == model.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, model.ErrTaskClosed)
	}
	if !model.CanSelect(steps, idx) {
		return nil, fmt.Errorf("step %d of task %s is not reachable yet: %w", step.StepNumber, task.ID, model.ErrLockedStep)
	}
	if !step.CompletionStatus.CanBecome(model.StepStatusSkipped) {
		return nil, fmt.Errorf("step %s cannot go from %s to skipped: %w", step.ID, step.CompletionStatus, model.ErrNotValid)
	}

	step.CompletionStatus = model.StepStatusSkipped
	step.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateStep(ctx, req.OwnerID, step); err != nil {
		return nil, fmt.Errorf("could not save step: %w", err)
	}
	steps[idx] = step

	s.logger.Infof("Skipped step %d of task %s", step.StepNumber, task.ID)
	s.notifier.Publish(feed.Event{
		Kind:    feed.EventStepUpdated,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
		StepID:  step.ID,
	})

	if model.TaskFinished(steps) {
		if err := s.finishTask(ctx, *task, steps); err != nil {
			return nil, err
		}
		return &step, nil
	}

	// Skipped steps fall out of the progress denominator, refresh the
	// percentage.
	task.ProgressPercentage = model.Progress(steps)
	task.UpdatedAt = step.UpdatedAt
	if err := s.repo.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("could not update task progress: %w", err)
	}

	return &step, nil
}
