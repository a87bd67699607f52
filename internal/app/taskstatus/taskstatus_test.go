package taskstatus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/app/taskstatus"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage/memory"
)

func TestServiceStatus(t *testing.T) {
	const owner = "local"
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(t *testing.T, withDeliverable bool) *memory.Repository {
		repo, err := memory.NewRepository(memory.RepositoryConfig{})
		require.NoError(t, err)

		require.NoError(t, repo.CreateTask(ctx, model.Task{
			ID:        "task-1",
			OwnerID:   owner,
			Title:     "Calculate the price of my ceramic mugs",
			Status:    model.TaskStatusInProgress,
			CreatedAt: now,
			UpdatedAt: now,
		}))
		require.NoError(t, repo.CreateSteps(ctx, []model.Step{
			{ID: "step-1", TaskID: "task-1", StepNumber: 1, Title: "List materials", InputType: model.InputTypeText, CompletionStatus: model.StepStatusCompleted, CreatedAt: now, UpdatedAt: now},
			{ID: "step-2", TaskID: "task-1", StepNumber: 2, Title: "Cost them", InputType: model.InputTypeCalculation, CompletionStatus: model.StepStatusPending, CreatedAt: now, UpdatedAt: now},
		}))
		if withDeliverable {
			require.NoError(t, repo.CreateDeliverable(ctx, model.Deliverable{
				ID:        "deliv-1",
				TaskID:    "task-1",
				OwnerID:   owner,
				Title:     "Deliverable: Calculate the price of my ceramic mugs",
				Content:   "document",
				CreatedAt: now,
			}))
		}
		return repo
	}

	t.Run("Returns the task with its ordered steps", func(t *testing.T) {
		svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: seed(t, false)})
		require.NoError(t, err)

		st, err := svc.Status(ctx, taskstatus.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		assert.Equal(t, "task-1", st.Task.ID)
		require.Len(t, st.Steps, 2)
		assert.Equal(t, 1, st.Steps[0].StepNumber)
		assert.Nil(t, st.Deliverable)
	})

	t.Run("Includes the deliverable once assembled", func(t *testing.T) {
		svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: seed(t, true)})
		require.NoError(t, err)

		st, err := svc.Status(ctx, taskstatus.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		require.NotNil(t, st.Deliverable)
		assert.Equal(t, "deliv-1", st.Deliverable.ID)
	})

	t.Run("Missing task is not found", func(t *testing.T) {
		svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: seed(t, false)})
		require.NoError(t, err)

		_, err = svc.Status(ctx, taskstatus.Request{OwnerID: owner, TaskID: "missing"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Another owner's task is not visible", func(t *testing.T) {
		svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: seed(t, false)})
		require.NoError(t, err)

		_, err = svc.Status(ctx, taskstatus.Request{OwnerID: "someone-else", TaskID: "task-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
