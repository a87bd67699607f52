package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/model"
)

func TestNormalizeInput(t *testing.T) {
	tests := map[string]struct {
		inputType model.InputType
		data      map[string]any
		expErr    bool
		errMsg    string
		validate  func(t *testing.T, in model.StepInput)
	}{
		"Nil data is an empty input": {
			inputType: model.InputTypeText,
			data:      nil,
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, model.InputTypeText, in.Type)
				assert.Empty(t, in.Text)
			},
		},
		"Text input": {
			inputType: model.InputTypeText,
			data:      map[string]any{"text": "clay, glaze, box"},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, "clay, glaze, box", in.Text)
			},
		},
		"Text with wrong type is rejected": {
			inputType: model.InputTypeText,
			data:      map[string]any{"text": 42},
			expErr:    true,
			errMsg:    "not a string",
		},
		"Calculation accepts floats and ints": {
			inputType: model.InputTypeCalculation,
			data:      map[string]any{"material": 3.5, "labor": 12},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, map[string]float64{"material": 3.5, "labor": 12}, in.Numbers)
			},
		},
		"Calculation with non numeric value is rejected": {
			inputType: model.InputTypeCalculation,
			data:      map[string]any{"material": "cheap"},
			expErr:    true,
			errMsg:    "not numeric",
		},
		"Checklist items": {
			inputType: model.InputTypeChecklist,
			data: map[string]any{"items": []any{
				map[string]any{"label": "photograph products", "done": true},
				map[string]any{"label": "write descriptions"},
			}},
			validate: func(t *testing.T, in model.StepInput) {
				require.Len(t, in.Checklist, 2)
				assert.Equal(t, model.ChecklistItem{Label: "photograph products", Done: true}, in.Checklist[0])
				assert.False(t, in.Checklist[1].Done)
			},
		},
		"Checklist with non object item is rejected": {
			inputType: model.InputTypeChecklist,
			data:      map[string]any{"items": []any{"photograph products"}},
			expErr:    true,
			errMsg:    "not an object",
		},
		"File upload": {
			inputType: model.InputTypeFileUpload,
			data:      map[string]any{"name": "costs.csv", "url": "https://blob.example.com/costs.csv"},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, model.FileRef{Name: "costs.csv", URL: "https://blob.example.com/costs.csv"}, in.File)
			},
		},
		"URL from the url key": {
			inputType: model.InputTypeURL,
			data:      map[string]any{"url": " https://example.com/shop "},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, "https://example.com/shop", in.URL)
			},
		},
		"URL falls back to the text key": {
			inputType: model.InputTypeURL,
			data:      map[string]any{"text": "https://example.com/shop"},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, "https://example.com/shop", in.URL)
			},
		},
		"Selection from a list": {
			inputType: model.InputTypeSelection,
			data:      map[string]any{"selected": []any{"etsy", "shopify"}},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, []string{"etsy", "shopify"}, in.Selection)
			},
		},
		"Single selection from a string": {
			inputType: model.InputTypeSelection,
			data:      map[string]any{"selected": "etsy"},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, []string{"etsy"}, in.Selection)
			},
		},
		"Selection with wrong shape is rejected": {
			inputType: model.InputTypeSelection,
			data:      map[string]any{"selected": 42},
			expErr:    true,
			errMsg:    "not a string or list",
		},
		"Unknown keys are ignored": {
			inputType: model.InputTypeText,
			data:      map[string]any{"text": "fine", "extra": map[string]any{"nested": true}},
			validate: func(t *testing.T, in model.StepInput) {
				assert.Equal(t, "fine", in.Text)
			},
		},
		"Unknown input type is rejected": {
			inputType: "spreadsheet",
			data:      map[string]any{"text": "fine"},
			expErr:    true,
			errMsg:    "unknown input type",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in, err := model.NormalizeInput(tt.inputType, tt.data)

			if tt.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				require.NoError(t, err)
				tt.validate(t, in)
			}
		})
	}
}

func TestStepInputValidURL(t *testing.T) {
	tests := map[string]struct {
		url string
		exp bool
	}{
		"HTTPS url":              {url: "https://example.com/shop", exp: true},
		"HTTP url":               {url: "http://example.com", exp: true},
		"Relative path":          {url: "/shop", exp: false},
		"Missing host":           {url: "https://", exp: false},
		"Other scheme":           {url: "ftp://example.com", exp: false},
		"Plain text":             {url: "my shop", exp: false},
		"Empty":                  {url: "", exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := model.StepInput{Type: model.InputTypeURL, URL: tt.url}
			assert.Equal(t, tt.exp, in.ValidURL())
		})
	}
}
