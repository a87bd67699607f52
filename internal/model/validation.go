package model

import "time"

// ValidationType is how a validation attempt was performed.
type ValidationType string

const (
	// ValidationTypeAutomatic evaluates the declarative criteria only.
	ValidationTypeAutomatic ValidationType = "automatic"
	// ValidationTypeAIAssisted evaluates the criteria and asks the
	// completion service for a judgement on the step data.
	ValidationTypeAIAssisted ValidationType = "ai_assisted"
	// ValidationTypeManual accepts a human confirmation as sufficient proof.
	ValidationTypeManual ValidationType = "manual"
)

// Valid reports whether the validation type is a known one.
func (t ValidationType) Valid() bool {
	switch t {
	case ValidationTypeAutomatic, ValidationTypeAIAssisted, ValidationTypeManual:
		return true
	}
	return false
}

// ValidationResult is the outcome of a validation attempt.
type ValidationResult string

const (
	ValidationResultPassed  ValidationResult = "passed"
	ValidationResultFailed  ValidationResult = "failed"
	ValidationResultPending ValidationResult = "pending"
)

// ValidationRecord is the audit entry for one attempt to validate a step's
// data. A step may accumulate several failed records before a passed one
// flips its completion status.
type ValidationRecord struct {
	ID               string
	StepID           string
	OwnerID          string
	Type             ValidationType
	Result           ValidationResult
	UserConfirmation string
	Reason           string
	CreatedAt        time.Time
}
