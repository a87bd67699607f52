package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/stepflow/internal/model"
)

// JSONPrinter prints task and step information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskItem represents a task in the list output (subset of fields).
type taskItem struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Status             string    `json:"status"`
	ProgressPercentage int       `json:"progress_percentage"`
	DeliverableStatus  string    `json:"deliverable_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// stepItem represents one step of a task.
type stepItem struct {
	ID                 string         `json:"id"`
	StepNumber         int            `json:"step_number"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	InputType          string         `json:"input_type"`
	CompletionStatus   string         `json:"completion_status"`
	UserInputData      map[string]any `json:"user_input_data,omitempty"`
	ValidationCriteria map[string]any `json:"validation_criteria,omitempty"`
	Current            bool           `json:"current,omitempty"`
}

// statusOutput represents the full task status output.
type statusOutput struct {
	Task        taskItem           `json:"task"`
	Steps       []stepItem         `json:"steps,omitempty"`
	Deliverable *deliverableOutput `json:"deliverable,omitempty"`
}

// deliverableOutput represents the deliverable document output.
type deliverableOutput struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func newTaskItem(t model.Task) taskItem {
	return taskItem{
		ID:                 t.ID,
		Title:              t.Title,
		Status:             string(t.Status),
		ProgressPercentage: t.ProgressPercentage,
		DeliverableStatus:  string(t.DeliverableStatus),
		CreatedAt:          t.CreatedAt.UTC(),
	}
}

func newStepItem(s model.Step) stepItem {
	return stepItem{
		ID:                 s.ID,
		StepNumber:         s.StepNumber,
		Title:              s.Title,
		Description:        s.Description,
		InputType:          string(s.InputType),
		CompletionStatus:   string(s.CompletionStatus),
		UserInputData:      s.UserInputData,
		ValidationCriteria: s.ValidationCriteria,
	}
}

func newDeliverableOutput(d model.Deliverable) *deliverableOutput {
	return &deliverableOutput{
		ID:        d.ID,
		TaskID:    d.TaskID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTaskList prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintTaskList(tasks []model.Task) error {
	items := make([]taskItem, len(tasks))
	for i, t := range tasks {
		items[i] = newTaskItem(t)
	}
	return j.encode(items)
}

// PrintTaskStatus prints detailed task status in JSON format.
func (j *JSONPrinter) PrintTaskStatus(task model.Task, steps []model.Step, deliverable *model.Deliverable) error {
	output := statusOutput{Task: newTaskItem(task)}
	for _, s := range steps {
		output.Steps = append(output.Steps, newStepItem(s))
	}
	if deliverable != nil {
		output.Deliverable = newDeliverableOutput(*deliverable)
	}
	return j.encode(output)
}

// PrintSteps prints the step sequence in JSON format.
func (j *JSONPrinter) PrintSteps(steps []model.Step, currentIndex int) error {
	items := make([]stepItem, len(steps))
	for i, s := range steps {
		items[i] = newStepItem(s)
		items[i].Current = i == currentIndex
	}
	return j.encode(items)
}

// PrintStep prints one step in JSON format.
func (j *JSONPrinter) PrintStep(step model.Step) error {
	return j.encode(newStepItem(step))
}

// PrintDeliverable prints the deliverable document in JSON format.
func (j *JSONPrinter) PrintDeliverable(deliverable model.Deliverable) error {
	return j.encode(newDeliverableOutput(deliverable))
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}
