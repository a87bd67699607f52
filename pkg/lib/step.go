package lib

import (
	"context"
	"fmt"

	"github.com/slok/stepflow/internal/app/assist"
	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/model"
)

func (c *Client) newProgressService() (*progress.Service, error) {
	svc, err := progress.NewService(progress.ServiceConfig{
		Repository: c.repo,
		Completion: c.client,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

// SelectStep returns the step at the given 0-based index when the step
// ordering allows it. Selecting a locked or out-of-range step is a no-op
// that returns the current step instead, never an error.
func (c *Client) SelectStep(ctx context.Context, taskID string, index int) (*Step, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	step, err := svc.Select(ctx, progress.SelectRequest{
		OwnerID: c.ownerID,
		TaskID:  taskID,
		Index:   index,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalStep(*step)
	return &out, nil
}

// NextStep selects the step after the current one.
func (c *Client) NextStep(ctx context.Context, taskID string) (*Step, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	step, err := svc.Next(ctx, progress.Request{OwnerID: c.ownerID, TaskID: taskID})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalStep(*step)
	return &out, nil
}

// PreviousStep selects the step before the current one.
func (c *Client) PreviousStep(ctx context.Context, taskID string) (*Step, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	step, err := svc.Previous(ctx, progress.Request{OwnerID: c.ownerID, TaskID: taskID})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalStep(*step)
	return &out, nil
}

// UpdateStep merges data into the step's input document. Recording data on
// a pending step moves it to in_progress. No validation happens here.
//
// Returns [ErrTaskClosed] on completed tasks, or [ErrLockedStep] for steps
// beyond the first unfinished one.
func (c *Client) UpdateStep(ctx context.Context, stepID string, data map[string]any) (*Step, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	step, err := svc.Update(ctx, progress.UpdateRequest{
		OwnerID: c.ownerID,
		StepID:  stepID,
		Data:    data,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalStep(*step)
	return &out, nil
}

// ValidateStepOpts configures a validation attempt.
type ValidateStepOpts struct {
	// Type defaults to [ValidationTypeAutomatic].
	Type ValidationType
	// Confirmation is the user statement backing a manual validation.
	Confirmation string
}

// ValidateStep evaluates the step's recorded data. Pass nil opts for an
// automatic validation.
//
// A failed attempt is a regular [ValidationOutcome], not an error.
// Re-validating a completed step succeeds without side effects.
//
// Returns [ErrLockedStep] for steps beyond the first unfinished one, or
// [ErrTaskClosed] on completed tasks.
func (c *Client) ValidateStep(ctx context.Context, stepID string, opts *ValidateStepOpts) (*ValidationOutcome, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	req := progress.ValidateRequest{
		OwnerID: c.ownerID,
		StepID:  stepID,
	}
	if opts != nil {
		req.Type = model.ValidationType(opts.Type)
		req.Confirmation = opts.Confirmation
	}

	res, err := svc.Validate(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return &ValidationOutcome{
		Passed:        res.Passed,
		Reason:        res.Reason,
		TaskCompleted: res.TaskCompleted,
		Step:          fromInternalStep(res.Step),
	}, nil
}

// SkipStep marks the step as skipped. Skipped is terminal: it unlocks the
// next step but does not count towards progress.
func (c *Client) SkipStep(ctx context.Context, stepID string) (*Step, error) {
	svc, err := c.newProgressService()
	if err != nil {
		return nil, err
	}

	step, err := svc.Skip(ctx, progress.SkipRequest{
		OwnerID: c.ownerID,
		StepID:  stepID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalStep(*step)
	return &out, nil
}

// Ask sends a question to the step's AI assistant. The conversation is
// persisted with the step.
//
// When the completion service fails mid-call the question is still logged
// and the outcome carries a canned apology with Degraded set.
//
// Returns [ErrExternalService] if the service is not configured at all.
func (c *Client) Ask(ctx context.Context, stepID, message string) (*AskOutcome, error) {
	client, err := c.completionRequired()
	if err != nil {
		return nil, err
	}

	svc, err := assist.NewService(assist.ServiceConfig{
		Repository: c.repo,
		Completion: client,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Ask(ctx, assist.Request{
		OwnerID: c.ownerID,
		StepID:  stepID,
		Message: message,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &AskOutcome{Reply: res.Reply, Degraded: res.Degraded}, nil
}
