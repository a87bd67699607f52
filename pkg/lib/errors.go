package lib

import (
	"errors"

	"github.com/slok/stepflow/internal/model"
)

var (
	// ErrNotFound indicates the resource does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates the resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid indicates invalid input or configuration.
	ErrNotValid = errors.New("not valid")
	// ErrLockedStep indicates the operation targets a step beyond the first
	// unfinished one.
	ErrLockedStep = errors.New("step is locked")
	// ErrTaskClosed indicates the operation targets a completed task.
	ErrTaskClosed = errors.New("task is closed")
	// ErrExternalService indicates the completion service failed or is not
	// configured. Retryable.
	ErrExternalService = errors.New("external service failed")
	// ErrStore indicates the persistence layer failed. Retryable.
	ErrStore = errors.New("store failed")
)

// mapError translates internal sentinel errors into the SDK's exported ones
// while preserving the original message and chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrLockedStep):
		return joinErrors(err, ErrLockedStep)
	case errors.Is(err, model.ErrTaskClosed):
		return joinErrors(err, ErrTaskClosed)
	case errors.Is(err, model.ErrExternalService):
		return joinErrors(err, ErrExternalService)
	case errors.Is(err, model.ErrStore):
		return joinErrors(err, ErrStore)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
