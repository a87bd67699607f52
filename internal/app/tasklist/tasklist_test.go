package tasklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/app/tasklist"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage/memory"
)

func TestServiceList(t *testing.T) {
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	base := time.Now().UTC()
	for i, id := range []string{"task-old", "task-new"} {
		require.NoError(t, repo.CreateTask(ctx, model.Task{
			ID:        id,
			OwnerID:   "local",
			Title:     "Task " + id,
			Status:    model.TaskStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.CreateTask(ctx, model.Task{
		ID:        "task-other",
		OwnerID:   "someone-else",
		Title:     "Not mine",
		Status:    model.TaskStatusPending,
		CreatedAt: base,
		UpdatedAt: base,
	}))

	svc, err := tasklist.NewService(tasklist.ServiceConfig{Repository: repo})
	require.NoError(t, err)

	t.Run("Lists only the owner's tasks, newest first", func(t *testing.T) {
		tasks, err := svc.List(ctx, tasklist.Request{OwnerID: "local"})
		require.NoError(t, err)

		require.Len(t, tasks, 2)
		assert.Equal(t, "task-new", tasks[0].ID)
		assert.Equal(t, "task-old", tasks[1].ID)
	})

	t.Run("Unknown owner gets an empty list", func(t *testing.T) {
		tasks, err := svc.List(ctx, tasklist.Request{OwnerID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}
