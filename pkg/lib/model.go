package lib

import (
	"time"

	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/stepgen"
)

// TaskStatus represents the lifecycle state of a task.
//
// The typical lifecycle is:
//
//	pending -> in_progress -> completed
//
// Completed is terminal, a task never leaves it.
type TaskStatus string

const (
	// TaskStatusPending indicates the task exists but has no steps yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates every step reached a terminal state.
	TaskStatusCompleted TaskStatus = "completed"
)

// DeliverableStatus tracks the asynchronous deliverable assembly of a task.
type DeliverableStatus string

const (
	DeliverableStatusNone    DeliverableStatus = "none"
	DeliverableStatusPending DeliverableStatus = "pending"
	DeliverableStatusReady   DeliverableStatus = "ready"
	DeliverableStatusFailed  DeliverableStatus = "failed"
)

// StepStatus represents the state of a single step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not been touched yet.
	StepStatusPending StepStatus = "pending"
	// StepStatusInProgress indicates the step has data but is not validated.
	StepStatusInProgress StepStatus = "in_progress"
	// StepStatusCompleted indicates the step passed validation. Terminal.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusSkipped indicates the step was skipped. Terminal, unlocks
	// the next step but does not count towards progress.
	StepStatusSkipped StepStatus = "skipped"
)

// InputType is the kind of user input a step expects.
type InputType string

const (
	InputTypeText        InputType = "text"
	InputTypeCalculation InputType = "calculation"
	InputTypeChecklist   InputType = "checklist"
	InputTypeFileUpload  InputType = "file_upload"
	InputTypeURL         InputType = "url"
	InputTypeSelection   InputType = "selection"
)

// ValidationType is how a validation attempt is performed.
type ValidationType string

const (
	// ValidationTypeAutomatic evaluates the declarative criteria only.
	ValidationTypeAutomatic ValidationType = "automatic"
	// ValidationTypeAIAssisted also asks the completion service for a
	// judgement. Degrades to automatic when the service is unreachable.
	ValidationTypeAIAssisted ValidationType = "ai_assisted"
	// ValidationTypeManual accepts a human confirmation as sufficient proof.
	ValidationTypeManual ValidationType = "manual"
)

// Task represents a unit of work decomposed into steps.
//
// This is a read-only snapshot of the task state at the time of the API call.
type Task struct {
	// ID is the unique identifier (ULID) assigned at creation.
	ID string
	// Title is the short task statement.
	Title string
	// Description is the optional longer statement.
	Description string
	// Status is the current lifecycle state.
	Status TaskStatus
	// ProgressPercentage is completed steps over non-skipped steps.
	ProgressPercentage int
	// DeliverableStatus tracks the deliverable assembly.
	DeliverableStatus DeliverableStatus
	// CreatedAt is when the task was created.
	CreatedAt time.Time
	// UpdatedAt is when the task last changed.
	UpdatedAt time.Time
}

// Step represents one ordered, typed, individually validated unit of work.
type Step struct {
	// ID is the unique identifier (ULID) assigned at generation.
	ID string
	// TaskID is the owning task.
	TaskID string
	// StepNumber is the 1-based position within the task.
	StepNumber int
	// Title is the step statement.
	Title string
	// Description explains what the step needs.
	Description string
	// InputType is the kind of data the step records.
	InputType InputType
	// Guidance seeds the step's AI assistant.
	Guidance string
	// Status is the step completion state.
	Status StepStatus
	// Data is the recorded user input document.
	Data map[string]any
	// ValidationCriteria is the declarative criteria document.
	ValidationCriteria map[string]any
	// CreatedAt is when the step was generated.
	CreatedAt time.Time
	// UpdatedAt is when the step last changed.
	UpdatedAt time.Time
}

// Deliverable is the final document of a completed task. Immutable, at most
// one per task.
type Deliverable struct {
	ID        string
	TaskID    string
	Title     string
	Content   string
	CreatedAt time.Time
}

// StepTemplate is one step blueprint of an [Archetype]. Description and
// Guidance may contain the `{product}` placeholder, replaced with the
// business context product name at generation time.
type StepTemplate struct {
	StepNumber         int
	Title              string
	Description        string
	InputType          InputType
	Guidance           string
	ValidationCriteria map[string]any
}

// Archetype maps task keywords to a fixed step template sequence. Archetypes
// given in [Config.Archetypes] extend the builtin catalog, or replace a
// builtin entry when the names match.
type Archetype struct {
	Name     string
	Keywords []string
	Steps    []StepTemplate
}

// BusinessContext is the optional business profile used to personalize
// generated steps. All fields are optional.
type BusinessContext struct {
	Industry    string
	ProductName string
	KnownCosts  map[string]float64
	Goals       []string
}

// ValidationOutcome is the result of one validation attempt. A failed
// attempt is a regular outcome, not an error.
type ValidationOutcome struct {
	// Passed reports whether the step data fulfilled the criteria.
	Passed bool
	// Reason explains a failed attempt.
	Reason string
	// TaskCompleted reports whether this validation finished the whole task.
	TaskCompleted bool
	// Step is the step state after the attempt.
	Step Step
}

// AskOutcome is the assistant's answer to a step question.
type AskOutcome struct {
	// Reply is the assistant text.
	Reply string
	// Degraded reports the completion service failed and Reply is a canned
	// apology. The question was still logged.
	Degraded bool
}

// TaskDetail is the full view of a task with its steps and, when assembled,
// its deliverable.
type TaskDetail struct {
	Task        Task
	Steps       []Step
	CurrentStep int
	Deliverable *Deliverable
}

// --- Internal conversion helpers ---

func fromInternalTask(t model.Task) Task {
	return Task{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             TaskStatus(t.Status),
		ProgressPercentage: t.ProgressPercentage,
		DeliverableStatus:  DeliverableStatus(t.DeliverableStatus),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func fromInternalTaskList(ts []model.Task) []Task {
	result := make([]Task, len(ts))
	for i, t := range ts {
		result[i] = fromInternalTask(t)
	}
	return result
}

func fromInternalStep(s model.Step) Step {
	return Step{
		ID:                 s.ID,
		TaskID:             s.TaskID,
		StepNumber:         s.StepNumber,
		Title:              s.Title,
		Description:        s.Description,
		InputType:          InputType(s.InputType),
		Guidance:           s.Guidance,
		Status:             StepStatus(s.CompletionStatus),
		Data:               s.UserInputData,
		ValidationCriteria: s.ValidationCriteria,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromInternalStepList(ss []model.Step) []Step {
	result := make([]Step, len(ss))
	for i, s := range ss {
		result[i] = fromInternalStep(s)
	}
	return result
}

func fromInternalDeliverable(d model.Deliverable) Deliverable {
	return Deliverable{
		ID:        d.ID,
		TaskID:    d.TaskID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
}

func toInternalArchetypes(as []Archetype) []stepgen.Archetype {
	result := make([]stepgen.Archetype, len(as))
	for i, a := range as {
		templates := make([]model.StepTemplate, len(a.Steps))
		for j, s := range a.Steps {
			templates[j] = model.StepTemplate{
				StepNumber:         s.StepNumber,
				Title:              s.Title,
				Description:        s.Description,
				InputType:          model.InputType(s.InputType),
				Guidance:           s.Guidance,
				ValidationCriteria: s.ValidationCriteria,
			}
		}
		result[i] = stepgen.Archetype{
			Name:      a.Name,
			Keywords:  a.Keywords,
			Templates: templates,
		}
	}
	return result
}

func toInternalBusinessContext(b BusinessContext) model.BusinessContext {
	return model.BusinessContext{
		Industry:    b.Industry,
		ProductName: b.ProductName,
		KnownCosts:  b.KnownCosts,
		Goals:       b.Goals,
	}
}
