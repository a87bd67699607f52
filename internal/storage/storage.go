package storage

import (
	"context"

	"github.com/slok/stepflow/internal/model"
)

// TaskRepository is the interface for task persistence. Every read and
// write is scoped by the owner, the engine never operates cross-tenant.
type TaskRepository interface {
	CreateTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, ownerID, id string) (*model.Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
}

// StepRepository is the interface for step persistence. Step ownership is
// derived through the owning task.
type StepRepository interface {
	// CreateSteps inserts all steps of a task together, in order.
	CreateSteps(ctx context.Context, steps []model.Step) error
	GetStep(ctx context.Context, ownerID, id string) (*model.Step, error)
	ListSteps(ctx context.Context, ownerID, taskID string) ([]model.Step, error)
	// UpdateStep replaces the step row atomically (single row update),
	// scoped through the owning task.
	UpdateStep(ctx context.Context, ownerID string, s model.Step) error
}

// ValidationRepository is the interface for validation audit records.
type ValidationRepository interface {
	CreateValidation(ctx context.Context, v model.ValidationRecord) error
	ListValidations(ctx context.Context, ownerID, stepID string) ([]model.ValidationRecord, error)
}

// DeliverableRepository is the interface for deliverable artifacts.
type DeliverableRepository interface {
	CreateDeliverable(ctx context.Context, d model.Deliverable) error
	GetDeliverableByTask(ctx context.Context, ownerID, taskID string) (*model.Deliverable, error)
}

// Repository is the full persistence surface of the engine.
type Repository interface {
	TaskRepository
	StepRepository
	ValidationRepository
	DeliverableRepository
}
