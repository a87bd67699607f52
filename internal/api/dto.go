package api

import (
	"time"

	"github.com/slok/stepflow/internal/model"
)

type taskJSON struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Status             string    `json:"status"`
	ProgressPercentage int       `json:"progress_percentage"`
	DeliverableStatus  string    `json:"deliverable_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func taskToJSON(t model.Task) taskJSON {
	return taskJSON{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             string(t.Status),
		ProgressPercentage: t.ProgressPercentage,
		DeliverableStatus:  string(t.DeliverableStatus),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

type stepJSON struct {
	ID                 string              `json:"id"`
	TaskID             string              `json:"task_id"`
	StepNumber         int                 `json:"step_number"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	InputType          string              `json:"input_type"`
	Guidance           string              `json:"guidance,omitempty"`
	CompletionStatus   string              `json:"completion_status"`
	UserInputData      map[string]any      `json:"user_input_data"`
	ValidationCriteria map[string]any      `json:"validation_criteria"`
	AssistanceLog      []model.AssistEntry `json:"ai_assistance_log"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func stepToJSON(s model.Step) stepJSON {
	return stepJSON{
		ID:                 s.ID,
		TaskID:             s.TaskID,
		StepNumber:         s.StepNumber,
		Title:              s.Title,
		Description:        s.Description,
		InputType:          string(s.InputType),
		Guidance:           s.Guidance,
		CompletionStatus:   string(s.CompletionStatus),
		UserInputData:      s.UserInputData,
		ValidationCriteria: s.ValidationCriteria,
		AssistanceLog:      s.AssistanceLog,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func stepsToJSON(steps []model.Step) []stepJSON {
	out := make([]stepJSON, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepToJSON(s))
	}
	return out
}

type deliverableJSON struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func deliverableToJSON(d model.Deliverable) deliverableJSON {
	return deliverableJSON{
		ID:        d.ID,
		TaskID:    d.TaskID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
}
