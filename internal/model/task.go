package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task has steps and is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates every step of the task reached a terminal
	// state. Terminal, the task never leaves it.
	TaskStatusCompleted TaskStatus = "completed"
)

// CanBecome is the total transition predicate for task states. Every
// (state, state) pair has a defined result, self transitions are no-ops.
func (s TaskStatus) CanBecome(t TaskStatus) bool {
	if s == t {
		return true
	}
	switch s {
	case TaskStatusPending:
		return t == TaskStatusInProgress || t == TaskStatusCompleted
	case TaskStatusInProgress:
		return t == TaskStatusCompleted
	default:
		return false
	}
}

// DeliverableStatus tracks the asynchronous deliverable assembly for a task.
type DeliverableStatus string

const (
	// DeliverableStatusNone indicates no assembly has been requested yet.
	DeliverableStatusNone DeliverableStatus = "none"
	// DeliverableStatusPending indicates assembly is queued or running.
	DeliverableStatusPending DeliverableStatus = "pending"
	// DeliverableStatusReady indicates the deliverable exists.
	DeliverableStatusReady DeliverableStatus = "ready"
	// DeliverableStatusFailed indicates the last assembly attempt failed and
	// can be retried. The owning task stays completed regardless.
	DeliverableStatusFailed DeliverableStatus = "failed"
)

// Task is a coarse unit of work assigned to a user, decomposed into steps.
type Task struct {
	ID                 string
	OwnerID            string
	Title              string
	Description        string
	Status             TaskStatus
	ProgressPercentage int
	DeliverableStatus  DeliverableStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate validates the task fields.
func (t *Task) Validate() error {
	if t.OwnerID == "" {
		return fmt.Errorf("owner id is required: %w", ErrNotValid)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrNotValid)
	}
	switch t.Status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
	default:
		return fmt.Errorf("unknown task status %q: %w", t.Status, ErrNotValid)
	}
	return nil
}

// BusinessContext is the optional business-profile context used to
// parameterize step generation. All fields are optional.
type BusinessContext struct {
	Industry    string
	ProductName string
	KnownCosts  map[string]float64
	Goals       []string
}
