package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrLockedStep is returned when a transition violates the step ordering invariant.
	ErrLockedStep = errors.New("step is locked")
	// ErrTaskClosed is returned when an operation is attempted on a completed task.
	ErrTaskClosed = errors.New("task is closed")
	// ErrExternalService is returned when the text-completion service fails or
	// returns unusable content.
	ErrExternalService = errors.New("external service failed")
	// ErrStore is returned when the underlying persistence call failed. The
	// engine performs no retries, callers may retry at their discretion.
	ErrStore = errors.New("store failed")
)
