package lib

import (
	"context"
	"fmt"

	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/app/taskcreate"
	"github.com/slok/stepflow/internal/app/tasklist"
	"github.com/slok/stepflow/internal/app/taskstatus"
)

// CreateTaskOpts configures task creation. Title is required.
type CreateTaskOpts struct {
	Title       string
	Description string
}

// CreateTask creates a new pending task. Use [Client.GenerateSteps] to
// decompose it.
//
// Returns [ErrNotValid] if the title is empty.
func (c *Client) CreateTask(ctx context.Context, opts CreateTaskOpts) (*Task, error) {
	svc, err := taskcreate.NewService(taskcreate.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Create(ctx, taskcreate.Request{
		OwnerID:     c.ownerID,
		Title:       opts.Title,
		Description: opts.Description,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalTask(*task)
	return &out, nil
}

// ListTasks returns the owner's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	svc, err := tasklist.NewService(tasklist.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	tasks, err := svc.List(ctx, tasklist.Request{OwnerID: c.ownerID})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalTaskList(tasks), nil
}

// GetTask returns one task with its steps and, when assembled, its
// deliverable.
//
// Returns [ErrNotFound] if the task does not exist or belongs to another owner.
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	st, err := svc.Status(ctx, taskstatus.Request{
		OwnerID: c.ownerID,
		TaskID:  taskID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	detail := &TaskDetail{
		Task:  fromInternalTask(st.Task),
		Steps: fromInternalStepList(st.Steps),
	}
	if st.Deliverable != nil {
		d := fromInternalDeliverable(*st.Deliverable)
		detail.Deliverable = &d
	}

	snap, err := c.newProgressService()
	if err != nil {
		return nil, err
	}
	listed, err := snap.List(ctx, progress.Request{OwnerID: c.ownerID, TaskID: taskID})
	if err != nil {
		return nil, mapError(err)
	}
	detail.CurrentStep = listed.CurrentIndex

	return detail, nil
}

// GenerateSteps decomposes the task into its persisted step sequence.
//
// Idempotent: a task that already has steps keeps them. The enhanced
// completion path is used when the service is configured, otherwise the
// archetype fallback. Never produces an empty sequence.
//
// Returns [ErrNotFound] if the task does not exist, or [ErrTaskClosed] if
// it is completed.
func (c *Client) GenerateSteps(ctx context.Context, taskID string, bctx BusinessContext) ([]Step, error) {
	svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
		Repository: c.repo,
		Generator:  c.gen,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	steps, err := svc.Generate(ctx, stepgenerate.Request{
		OwnerID: c.ownerID,
		TaskID:  taskID,
		Context: toInternalBusinessContext(bctx),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalStepList(steps), nil
}

// AssembleDeliverable builds the final document of a finished task.
//
// Idempotent: an existing deliverable is returned as-is. A failed attempt
// is retryable and never rolls back the task completion.
//
// Returns [ErrNotValid] if the task still has unfinished steps, or
// [ErrExternalService] if the completion service fails or is not configured.
func (c *Client) AssembleDeliverable(ctx context.Context, taskID string) (*Deliverable, error) {
	client, err := c.completionRequired()
	if err != nil {
		return nil, err
	}

	svc, err := assemble.NewService(assemble.ServiceConfig{
		Repository: c.repo,
		Completion: client,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	d, err := svc.Assemble(ctx, assemble.Request{
		OwnerID: c.ownerID,
		TaskID:  taskID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalDeliverable(*d)
	return &out, nil
}
