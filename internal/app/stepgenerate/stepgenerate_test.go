package stepgenerate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/stepgen"
	"github.com/slok/stepflow/internal/storage/memory"
)

func newGenerator(t *testing.T) *stepgen.Generator {
	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{})
	require.NoError(t, err)
	return gen
}

func newRepository(t *testing.T) *memory.Repository {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    func(t *testing.T) stepgenerate.ServiceConfig
		expErr bool
		errMsg string
	}{
		"Valid config": {
			cfg: func(t *testing.T) stepgenerate.ServiceConfig {
				return stepgenerate.ServiceConfig{
					Repository: newRepository(t),
					Generator:  newGenerator(t),
				}
			},
			expErr: false,
		},
		"Missing repository returns error": {
			cfg: func(t *testing.T) stepgenerate.ServiceConfig {
				return stepgenerate.ServiceConfig{Generator: newGenerator(t)}
			},
			expErr: true,
			errMsg: "repository is required",
		},
		"Missing generator returns error": {
			cfg: func(t *testing.T) stepgenerate.ServiceConfig {
				return stepgenerate.ServiceConfig{Repository: newRepository(t)}
			},
			expErr: true,
			errMsg: "generator is required",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := stepgenerate.NewService(tt.cfg(t))

			if tt.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, svc)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestServiceGenerate(t *testing.T) {
	const owner = "local"

	newTask := func(status model.TaskStatus) model.Task {
		return model.Task{
			ID:                "task-1",
			OwnerID:           owner,
			Title:             "Calculate the price of my ceramic mugs",
			Status:            status,
			DeliverableStatus: model.DeliverableStatusNone,
			CreatedAt:         time.Now().UTC(),
			UpdatedAt:         time.Now().UTC(),
		}
	}

	t.Run("Generating on a pending task persists steps and starts the task", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask(model.TaskStatusPending)))

		svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
			Repository: repo,
			Generator:  newGenerator(t),
		})
		require.NoError(t, err)

		steps, err := svc.Generate(ctx, stepgenerate.Request{
			OwnerID: owner,
			TaskID:  "task-1",
			Context: model.BusinessContext{ProductName: "ceramic mugs"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, steps)

		for i, step := range steps {
			assert.NotEmpty(t, step.ID)
			assert.Equal(t, "task-1", step.TaskID)
			assert.Equal(t, i+1, step.StepNumber)
			assert.Equal(t, model.StepStatusPending, step.CompletionStatus)
			assert.NotNil(t, step.UserInputData)
		}

		stored, err := repo.ListSteps(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Len(t, stored, len(steps))

		task, err := repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusInProgress, task.Status)
	})

	t.Run("Generating twice keeps the existing sequence", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask(model.TaskStatusPending)))

		svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
			Repository: repo,
			Generator:  newGenerator(t),
		})
		require.NoError(t, err)

		first, err := svc.Generate(ctx, stepgenerate.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		second, err := svc.Generate(ctx, stepgenerate.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("Generating on a completed task is rejected", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask(model.TaskStatusCompleted)))

		svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
			Repository: repo,
			Generator:  newGenerator(t),
		})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, stepgenerate.Request{OwnerID: owner, TaskID: "task-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrTaskClosed)
	})

	t.Run("Generating on a missing task is not found", func(t *testing.T) {
		ctx := context.Background()
		svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
			Repository: newRepository(t),
			Generator:  newGenerator(t),
		})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, stepgenerate.Request{OwnerID: owner, TaskID: "missing"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Another owner's task is not visible", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask(model.TaskStatusPending)))

		svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
			Repository: repo,
			Generator:  newGenerator(t),
		})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, stepgenerate.Request{OwnerID: "someone-else", TaskID: "task-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
