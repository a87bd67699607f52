package lib_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/pkg/lib"
)

// newTestClient creates a client with a temp SQLite DB for test isolation.
func newTestClient(t *testing.T) *lib.Client {
	t.Helper()

	client, err := lib.New(context.Background(), lib.Config{
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
		Archetypes: []lib.Archetype{exampleArchetype()},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestCreateTask(t *testing.T) {
	tests := map[string]struct {
		opts   lib.CreateTaskOpts
		expErr bool
		expIs  error
	}{
		"Creating a task should work.": {
			opts: lib.CreateTaskOpts{
				Title:       "Calculate the price of my ceramic mugs",
				Description: "For the winter market",
			},
		},

		"Creating a task without a title should fail.": {
			opts:   lib.CreateTaskOpts{Description: "No title"},
			expErr: true,
			expIs:  lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t)

			task, err := client.CreateTask(context.Background(), test.opts)

			if test.expErr {
				require.Error(t, err)
				if test.expIs != nil {
					assert.ErrorIs(t, err, test.expIs)
				}
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, task.ID)
			assert.Equal(t, test.opts.Title, task.Title)
			assert.Equal(t, lib.TaskStatusPending, task.Status)
			assert.Equal(t, lib.DeliverableStatusNone, task.DeliverableStatus)
		})
	}
}

func TestGenerateSteps(t *testing.T) {
	ctx := context.Background()

	t.Run("Generating steps for a missing task should fail.", func(t *testing.T) {
		client := newTestClient(t)

		_, err := client.GenerateSteps(ctx, "missing-id", lib.BusinessContext{})
		require.Error(t, err)
		assert.ErrorIs(t, err, lib.ErrNotFound)
	})

	t.Run("Generating steps should persist the archetype sequence.", func(t *testing.T) {
		client := newTestClient(t)

		task, err := client.CreateTask(ctx, lib.CreateTaskOpts{Title: "Price my mugs"})
		require.NoError(t, err)

		steps, err := client.GenerateSteps(ctx, task.ID, lib.BusinessContext{ProductName: "mugs"})
		require.NoError(t, err)

		require.Len(t, steps, 2)
		assert.Equal(t, "List your materials", steps[0].Title)
		assert.Contains(t, steps[0].Description, "mugs")
		assert.Equal(t, lib.StepStatusPending, steps[0].Status)

		detail, err := client.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, lib.TaskStatusInProgress, detail.Task.Status)
	})
}

func TestInvalidArchetypeConfig(t *testing.T) {
	_, err := lib.New(context.Background(), lib.Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Archetypes: []lib.Archetype{{
			Name:     "broken",
			Keywords: []string{"broken"},
			Steps: []lib.StepTemplate{{
				StepNumber:         1,
				Title:              "Checklist with a numeric bound",
				InputType:          lib.InputTypeChecklist,
				ValidationCriteria: map[string]any{"min": 1},
			}},
		}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric bounds do not apply")
}
