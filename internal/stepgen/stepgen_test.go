package stepgen_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/completion/completionmock"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/stepgen"
)

func TestNewGenerator(t *testing.T) {
	tests := map[string]struct {
		cfg    stepgen.GeneratorConfig
		expErr bool
		errMsg string
	}{
		"Empty config is valid": {
			cfg:    stepgen.GeneratorConfig{},
			expErr: false,
		},
		"Valid override replacing a builtin": {
			cfg: stepgen.GeneratorConfig{
				Overrides: []stepgen.Archetype{{
					Name:     "cost_calculation",
					Keywords: []string{"cost"},
					Templates: []model.StepTemplate{{
						StepNumber: 1,
						Title:      "List everything you spend",
						InputType:  model.InputTypeText,
					}},
				}},
			},
			expErr: false,
		},
		"Override without templates is rejected": {
			cfg: stepgen.GeneratorConfig{
				Overrides: []stepgen.Archetype{{Name: "empty"}},
			},
			expErr: true,
			errMsg: "has no templates",
		},
		"Override with incompatible criteria is rejected": {
			cfg: stepgen.GeneratorConfig{
				Overrides: []stepgen.Archetype{{
					Name: "broken",
					Templates: []model.StepTemplate{{
						StepNumber:         1,
						Title:              "Tick the boxes",
						InputType:          model.InputTypeChecklist,
						ValidationCriteria: map[string]any{"min": 1.0},
					}},
				}},
			},
			expErr: true,
			errMsg: "numeric bounds do not apply",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen, err := stepgen.NewGenerator(tt.cfg)

			if tt.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, gen)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, gen)
			}
		})
	}
}

func TestGeneratorGenerateArchetypes(t *testing.T) {
	tests := map[string]struct {
		task     model.Task
		bctx     model.BusinessContext
		expErr   bool
		validate func(t *testing.T, templates []model.StepTemplate)
	}{
		"Pricing task classifies as cost calculation": {
			task: model.Task{Title: "Calculate the price of my ceramic mugs"},
			bctx: model.BusinessContext{ProductName: "ceramic mugs"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
				assert.Equal(t, "List your materials", templates[0].Title)
				assert.Contains(t, templates[0].Description, "ceramic mugs")
				assert.Equal(t, model.InputTypeCalculation, templates[4].InputType)
			},
		},
		"Spanish pricing task matches the same archetype": {
			task: model.Task{Title: "Definir precios para mis tazas"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
				assert.Equal(t, "List your materials", templates[0].Title)
			},
		},
		"Research task classifies as validation research": {
			task: model.Task{Title: "Validate my online course idea", Description: "market research first"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 4)
				assert.Equal(t, "Define your target audience", templates[0].Title)
				assert.Equal(t, model.InputTypeURL, templates[2].InputType)
			},
		},
		"Keyword in the description is enough": {
			task: model.Task{Title: "Next quarter", Description: "build a marketing strategy"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 4)
				assert.Equal(t, "Define the goal", templates[0].Title)
			},
		},
		"Unclassifiable task falls back to generic and is never empty": {
			task: model.Task{Title: "Sort out the paperwork"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.NotEmpty(t, templates)
				assert.Equal(t, "Plan the task", templates[0].Title)
			},
		},
		"Missing product name uses a neutral placeholder": {
			task: model.Task{Title: "price my work"},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.NotEmpty(t, templates)
				assert.Contains(t, templates[0].Description, "your product")
				assert.NotContains(t, templates[0].Description, "{product}")
			},
		},
		"Blank title is rejected": {
			task:   model.Task{Title: "   "},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{})
			require.NoError(t, err)

			templates, err := gen.Generate(context.Background(), tt.task, tt.bctx)

			if tt.expErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				require.NoError(t, err)
				tt.validate(t, templates)
			}
		})
	}
}

func TestGeneratorGenerateStepNumbers(t *testing.T) {
	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{})
	require.NoError(t, err)

	templates, err := gen.Generate(context.Background(), model.Task{Title: "Sort out the paperwork"}, model.BusinessContext{})
	require.NoError(t, err)

	for i, tpl := range templates {
		assert.Equal(t, i+1, tpl.StepNumber)
	}
}

func TestGeneratorGenerateEnhanced(t *testing.T) {
	validJSON := `[
		{"step_number": 1, "title": "Audit your costs", "description": "Collect every expense.", "input_type": "text", "guidance": "Walk through each cost category.", "validation_criteria": {"min_length": 20}},
		{"step_number": 2, "title": "Compute unit cost", "description": "Divide totals per unit.", "input_type": "calculation", "guidance": "Check the math.", "validation_criteria": {"min": 0}},
		{"step_number": 3, "title": "Set the price", "description": "Add your margin.", "input_type": "calculation", "guidance": "Compare with the market.", "validation_criteria": {"required_fields": ["final_price"]}}
	]`

	tests := map[string]struct {
		setupMock func(client *completionmock.MockClient)
		validate  func(t *testing.T, templates []model.StepTemplate)
	}{
		"Valid completion output is used as is": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return(validJSON, nil)
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 3)
				assert.Equal(t, "Audit your costs", templates[0].Title)
				assert.Equal(t, model.InputTypeCalculation, templates[1].InputType)
			},
		},
		"Fenced completion output is stripped and used": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("```json\n"+validJSON+"\n```", nil)
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 3)
			},
		},
		"Service error falls back to archetypes": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("connection refused"))
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
				assert.Equal(t, "List your materials", templates[0].Title)
			},
		},
		"Unparseable output falls back to archetypes": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("I think you should start by listing your costs.", nil)
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
			},
		},
		"Too few steps falls back to archetypes": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return(`[{"step_number": 1, "title": "Do it all", "input_type": "text"}]`, nil)
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
			},
		},
		"Invalid generated step falls back to archetypes": {
			setupMock: func(client *completionmock.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return(`[
						{"step_number": 1, "title": "First", "input_type": "text"},
						{"step_number": 2, "title": "Second", "input_type": "spreadsheet"},
						{"step_number": 3, "title": "Third", "input_type": "text"}
					]`, nil)
			},
			validate: func(t *testing.T, templates []model.StepTemplate) {
				require.Len(t, templates, 5)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mockClient := completionmock.NewMockClient(t)
			tt.setupMock(mockClient)

			gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{Completion: mockClient})
			require.NoError(t, err)

			templates, err := gen.Generate(context.Background(), model.Task{Title: "price my ceramic mugs"}, model.BusinessContext{})

			require.NoError(t, err)
			tt.validate(t, templates)
		})
	}
}

func TestGeneratorOverridePrecedence(t *testing.T) {
	override := stepgen.Archetype{
		Name:     "cost_calculation",
		Keywords: []string{"cost", "price"},
		Templates: []model.StepTemplate{{
			StepNumber: 1,
			Title:      "Custom pricing step",
			InputType:  model.InputTypeText,
		}},
	}

	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{Overrides: []stepgen.Archetype{override}})
	require.NoError(t, err)

	templates, err := gen.Generate(context.Background(), model.Task{Title: "price my mugs"}, model.BusinessContext{})
	require.NoError(t, err)

	require.Len(t, templates, 1)
	assert.Equal(t, "Custom pricing step", templates[0].Title)

	// Tasks outside the override still hit the generic fallback.
	templates, err = gen.Generate(context.Background(), model.Task{Title: "Sort out the paperwork"}, model.BusinessContext{})
	require.NoError(t, err)
	require.NotEmpty(t, templates)
	assert.Equal(t, "Plan the task", templates[0].Title)
}
