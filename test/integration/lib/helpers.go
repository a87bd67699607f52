package lib

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sdklib "github.com/slok/stepflow/pkg/lib"
)

// PricingArchetype returns a small deterministic archetype so the SDK flow
// tests do not depend on the builtin catalog or the completion service. It
// replaces the builtin cost_calculation archetype by name.
func PricingArchetype() sdklib.Archetype {
	return sdklib.Archetype{
		Name:     "cost_calculation",
		Keywords: []string{"price", "pricing", "cost"},
		Steps: []sdklib.StepTemplate{
			{
				StepNumber:         1,
				Title:              "List your materials",
				Description:        "Write down every material that goes into one unit of {product}.",
				InputType:          sdklib.InputTypeText,
				Guidance:           "Help the user enumerate every material used to make {product}.",
				ValidationCriteria: map[string]any{"min_length": 10},
			},
			{
				StepNumber:         2,
				Title:              "Cost each material",
				Description:        "Record what one unit of each material costs you.",
				InputType:          sdklib.InputTypeCalculation,
				Guidance:           "Help the user put a number on every material.",
				ValidationCriteria: map[string]any{"min": 0},
			},
			{
				StepNumber:  3,
				Title:       "Decide your final price",
				Description: "Settle on a price of {product} covering costs and margin.",
				InputType:   sdklib.InputTypeText,
				Guidance:    "Help the user balance margin against what the market bears.",
			},
		},
	}
}

// NewTestClient creates an SDK client with a temp SQLite DB for test
// isolation. It runs without the completion service, so step generation uses
// the given archetypes (or the builtin catalog when none are given).
func NewTestClient(t *testing.T, archetypes ...sdklib.Archetype) *sdklib.Client {
	t.Helper()

	client, err := sdklib.New(context.Background(), sdklib.Config{
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
		Archetypes: archetypes,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
