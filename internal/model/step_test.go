package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/model"
)

func TestStepStatusCanBecome(t *testing.T) {
	tests := map[string]struct {
		from model.StepStatus
		to   model.StepStatus
		exp  bool
	}{
		"Pending can start":             {from: model.StepStatusPending, to: model.StepStatusInProgress, exp: true},
		"Pending can complete directly": {from: model.StepStatusPending, to: model.StepStatusCompleted, exp: true},
		"Pending can be skipped":        {from: model.StepStatusPending, to: model.StepStatusSkipped, exp: true},
		"In progress can complete":      {from: model.StepStatusInProgress, to: model.StepStatusCompleted, exp: true},
		"In progress can be skipped":    {from: model.StepStatusInProgress, to: model.StepStatusSkipped, exp: true},
		"In progress cannot regress":    {from: model.StepStatusInProgress, to: model.StepStatusPending, exp: false},
		"Completed is terminal":         {from: model.StepStatusCompleted, to: model.StepStatusInProgress, exp: false},
		"Completed cannot be skipped":   {from: model.StepStatusCompleted, to: model.StepStatusSkipped, exp: false},
		"Skipped is terminal":           {from: model.StepStatusSkipped, to: model.StepStatusCompleted, exp: false},
		"Self transition is a no-op":    {from: model.StepStatusSkipped, to: model.StepStatusSkipped, exp: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, tt.from.CanBecome(tt.to))
		})
	}
}

func steps(statuses ...model.StepStatus) []model.Step {
	out := make([]model.Step, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, model.Step{
			ID:               string(rune('a' + i)),
			StepNumber:       i + 1,
			CompletionStatus: s,
		})
	}
	return out
}

func TestUnlockedIndex(t *testing.T) {
	tests := map[string]struct {
		steps []model.Step
		exp   int
	}{
		"Fresh steps unlock the first one": {
			steps: steps(model.StepStatusPending, model.StepStatusPending),
			exp:   0,
		},
		"In progress step is the gate": {
			steps: steps(model.StepStatusCompleted, model.StepStatusInProgress, model.StepStatusPending),
			exp:   1,
		},
		"Skipped steps satisfy the gate": {
			steps: steps(model.StepStatusSkipped, model.StepStatusCompleted, model.StepStatusPending),
			exp:   2,
		},
		"All terminal unlocks past the end": {
			steps: steps(model.StepStatusCompleted, model.StepStatusSkipped),
			exp:   2,
		},
		"No steps": {
			steps: nil,
			exp:   0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, model.UnlockedIndex(tt.steps))
		})
	}
}

func TestCanSelect(t *testing.T) {
	ss := steps(model.StepStatusCompleted, model.StepStatusInProgress, model.StepStatusPending, model.StepStatusPending)

	tests := map[string]struct {
		index int
		exp   bool
	}{
		"Completed steps can be revisited":  {index: 0, exp: true},
		"Current step is selectable":        {index: 1, exp: true},
		"Step past the gate is locked":      {index: 2, exp: false},
		"Step far past the gate is locked":  {index: 3, exp: false},
		"Negative index is out of range":    {index: -1, exp: false},
		"Past the end index is out of range": {index: 4, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, model.CanSelect(ss, tt.index))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := map[string]struct {
		steps []model.Step
		exp   int
	}{
		"No steps is zero": {
			steps: nil,
			exp:   0,
		},
		"Nothing completed is zero": {
			steps: steps(model.StepStatusPending, model.StepStatusInProgress),
			exp:   0,
		},
		"Half completed": {
			steps: steps(model.StepStatusCompleted, model.StepStatusPending),
			exp:   50,
		},
		"Skipped steps shrink the denominator": {
			steps: steps(model.StepStatusCompleted, model.StepStatusSkipped, model.StepStatusPending),
			exp:   50,
		},
		"All skipped is zero": {
			steps: steps(model.StepStatusSkipped, model.StepStatusSkipped),
			exp:   0,
		},
		"One of three rounds to nearest": {
			steps: steps(model.StepStatusCompleted, model.StepStatusPending, model.StepStatusPending),
			exp:   33,
		},
		"Two of three rounds to nearest": {
			steps: steps(model.StepStatusCompleted, model.StepStatusCompleted, model.StepStatusPending),
			exp:   67,
		},
		"All completed": {
			steps: steps(model.StepStatusCompleted, model.StepStatusCompleted),
			exp:   100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, model.Progress(tt.steps))
		})
	}
}

func TestTaskFinished(t *testing.T) {
	tests := map[string]struct {
		steps []model.Step
		exp   bool
	}{
		"No steps never finishes": {
			steps: nil,
			exp:   false,
		},
		"Pending step keeps the task open": {
			steps: steps(model.StepStatusCompleted, model.StepStatusPending),
			exp:   false,
		},
		"All completed finishes": {
			steps: steps(model.StepStatusCompleted, model.StepStatusCompleted),
			exp:   true,
		},
		"Completed and skipped mix finishes": {
			steps: steps(model.StepStatusCompleted, model.StepStatusSkipped),
			exp:   true,
		},
		"All skipped does not finish": {
			steps: steps(model.StepStatusSkipped, model.StepStatusSkipped),
			exp:   false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, model.TaskFinished(tt.steps))
		})
	}
}

func TestStepTemplateValidate(t *testing.T) {
	tests := map[string]struct {
		template model.StepTemplate
		expErr   bool
		errMsg   string
	}{
		"Valid minimal template": {
			template: model.StepTemplate{
				StepNumber: 1,
				Title:      "List your material costs",
				InputType:  model.InputTypeText,
			},
			expErr: false,
		},
		"Valid template with matching criteria": {
			template: model.StepTemplate{
				StepNumber:         2,
				Title:              "Compute unit cost",
				InputType:          model.InputTypeCalculation,
				ValidationCriteria: map[string]any{"min": 0.0},
			},
			expErr: false,
		},
		"Zero step number is rejected": {
			template: model.StepTemplate{
				StepNumber: 0,
				Title:      "List your material costs",
				InputType:  model.InputTypeText,
			},
			expErr: true,
			errMsg: "step number",
		},
		"Empty title is rejected": {
			template: model.StepTemplate{
				StepNumber: 1,
				Title:      "   ",
				InputType:  model.InputTypeText,
			},
			expErr: true,
			errMsg: "title is required",
		},
		"Unknown input type is rejected": {
			template: model.StepTemplate{
				StepNumber: 1,
				Title:      "List your material costs",
				InputType:  "spreadsheet",
			},
			expErr: true,
			errMsg: "unknown input type",
		},
		"Incompatible criteria are rejected at generation time": {
			template: model.StepTemplate{
				StepNumber:         1,
				Title:              "Tick the boxes",
				InputType:          model.InputTypeChecklist,
				ValidationCriteria: map[string]any{"min": 1.0},
			},
			expErr: true,
			errMsg: "numeric bounds do not apply",
		},
		"Malformed criteria are rejected": {
			template: model.StepTemplate{
				StepNumber:         1,
				Title:              "Write it down",
				InputType:          model.InputTypeText,
				ValidationCriteria: map[string]any{"min_length": "ten"},
			},
			expErr: true,
			errMsg: "min_length",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.template.Validate()

			if tt.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
