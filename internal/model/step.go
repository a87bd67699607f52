package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StepStatus represents the state of a single step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not been touched yet.
	StepStatusPending StepStatus = "pending"
	// StepStatusInProgress indicates the step has user data but is not validated.
	StepStatusInProgress StepStatus = "in_progress"
	// StepStatusCompleted indicates the step passed validation. Terminal.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusSkipped indicates the step was skipped. Terminal, satisfies
	// the lock invariant but is excluded from progress.
	StepStatusSkipped StepStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s StepStatus) Terminal() bool {
	return s == StepStatusCompleted || s == StepStatusSkipped
}

// CanBecome is the total transition predicate for step states. Self
// transitions are allowed no-ops, terminal states allow nothing else.
func (s StepStatus) CanBecome(t StepStatus) bool {
	if s == t {
		return true
	}
	switch s {
	case StepStatusPending:
		return t == StepStatusInProgress || t == StepStatusCompleted || t == StepStatusSkipped
	case StepStatusInProgress:
		return t == StepStatusCompleted || t == StepStatusSkipped
	default:
		return false
	}
}

// InputType enumerates the kinds of user input a step expects.
type InputType string

const (
	InputTypeText        InputType = "text"
	InputTypeCalculation InputType = "calculation"
	InputTypeChecklist   InputType = "checklist"
	InputTypeFileUpload  InputType = "file_upload"
	InputTypeURL         InputType = "url"
	InputTypeSelection   InputType = "selection"
)

// Valid reports whether the input type is a known one.
func (t InputType) Valid() bool {
	switch t {
	case InputTypeText, InputTypeCalculation, InputTypeChecklist,
		InputTypeFileUpload, InputTypeURL, InputTypeSelection:
		return true
	}
	return false
}

// AssistEntryType is the kind of an assistance log entry.
type AssistEntryType string

const (
	AssistEntryQuestion AssistEntryType = "question"
	AssistEntryResponse AssistEntryType = "response"
)

// AssistEntry is one exchange of the per-step assistance conversation. The
// log is append only.
type AssistEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Message   string          `json:"message"`
	Type      AssistEntryType `json:"type"`
}

// Step is an ordered, typed, individually validated unit of work within a
// task. Step numbers are unique per task, contiguous and start at 1.
type Step struct {
	ID                 string
	TaskID             string
	StepNumber         int
	Title              string
	Description        string
	InputType          InputType
	Guidance           string
	CompletionStatus   StepStatus
	UserInputData      map[string]any
	ValidationCriteria map[string]any
	AssistanceLog      []AssistEntry
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StepTemplate is a generated blueprint for a step, before persistence.
type StepTemplate struct {
	StepNumber         int
	Title              string
	Description        string
	InputType          InputType
	Guidance           string
	ValidationCriteria map[string]any
}

// Validate checks the template is well formed and that its validation
// criteria are compatible with its input type. Incompatible criteria are a
// configuration error rejected here, at generation time, not at validation
// time.
func (t StepTemplate) Validate() error {
	if t.StepNumber < 1 {
		return fmt.Errorf("step number must be >= 1: %w", ErrNotValid)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("step %d: title is required: %w", t.StepNumber, ErrNotValid)
	}
	if !t.InputType.Valid() {
		return fmt.Errorf("step %d: unknown input type %q: %w", t.StepNumber, t.InputType, ErrNotValid)
	}

	criteria, err := ParseCriteria(t.ValidationCriteria)
	if err != nil {
		return fmt.Errorf("step %d: %w", t.StepNumber, err)
	}
	if err := criteria.CompatibleWith(t.InputType); err != nil {
		return fmt.Errorf("step %d: %w", t.StepNumber, err)
	}

	return nil
}

// UnlockedIndex returns the index of the first step that is not terminal,
// which is the furthest step a user may work on. Returns len(steps) when
// every step is terminal. Steps must be ordered by step number.
func UnlockedIndex(steps []Step) int {
	for i, s := range steps {
		if !s.CompletionStatus.Terminal() {
			return i
		}
	}
	return len(steps)
}

// CanSelect reports whether the step at index may be selected: completed and
// skipped steps can always be revisited, and the first non-terminal step is
// selectable, but nothing past an incomplete gate.
func CanSelect(steps []Step, index int) bool {
	if index < 0 || index >= len(steps) {
		return false
	}
	return index <= UnlockedIndex(steps)
}

// Progress computes the task progress percentage from its steps: completed
// over non-skipped total, rounded to the nearest integer. A task with zero
// countable steps reports 0.
func Progress(steps []Step) int {
	total := 0
	completed := 0
	for _, s := range steps {
		if s.CompletionStatus == StepStatusSkipped {
			continue
		}
		total++
		if s.CompletionStatus == StepStatusCompleted {
			completed++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// TaskFinished reports whether the steps complete the owning task: every
// step terminal and at least one actually completed. A task with zero steps
// is never auto-completed.
func TaskFinished(steps []Step) bool {
	if len(steps) == 0 {
		return false
	}
	anyCompleted := false
	for _, s := range steps {
		if !s.CompletionStatus.Terminal() {
			return false
		}
		if s.CompletionStatus == StepStatusCompleted {
			anyCompleted = true
		}
	}
	return anyCompleted
}
