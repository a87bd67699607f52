package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage/sqlite"
)

const owner = "local"

func newRepository(t *testing.T) *sqlite.Repository {
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "stepflow.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTask(id string) model.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Task{
		ID:                id,
		OwnerID:           owner,
		Title:             "Calculate the price of my ceramic mugs",
		Description:       "For the winter market",
		Status:            model.TaskStatusPending,
		DeliverableStatus: model.DeliverableStatusNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func newStep(id, taskID string, number int) model.Step {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Step{
		ID:                 id,
		TaskID:             taskID,
		StepNumber:         number,
		Title:              "List your materials",
		Description:        "Write down every material.",
		InputType:          model.InputTypeText,
		Guidance:           "Help the user enumerate every material.",
		CompletionStatus:   model.StepStatusPending,
		UserInputData:      map[string]any{},
		ValidationCriteria: map[string]any{"min_length": float64(20)},
		AssistanceLog:      []model.AssistEntry{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestRepositoryTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("Stored tasks round trip", func(t *testing.T) {
		repo := newRepository(t)
		task := newTask("task-1")
		require.NoError(t, repo.CreateTask(ctx, task))

		got, err := repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, task.Status, got.Status)
		assert.Equal(t, task.DeliverableStatus, got.DeliverableStatus)
	})

	t.Run("Duplicate task IDs are rejected", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))

		err := repo.CreateTask(ctx, newTask("task-1"))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrAlreadyExists)
	})

	t.Run("Tasks are scoped to their owner", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))

		_, err := repo.GetTask(ctx, "someone-else", "task-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Listing returns newest first", func(t *testing.T) {
		repo := newRepository(t)
		old := newTask("task-old")
		old.CreatedAt = old.CreatedAt.Add(-time.Hour)
		require.NoError(t, repo.CreateTask(ctx, old))
		require.NoError(t, repo.CreateTask(ctx, newTask("task-new")))

		tasks, err := repo.ListTasks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "task-new", tasks[0].ID)
	})

	t.Run("Updates persist status and progress", func(t *testing.T) {
		repo := newRepository(t)
		task := newTask("task-1")
		require.NoError(t, repo.CreateTask(ctx, task))

		task.Status = model.TaskStatusInProgress
		task.ProgressPercentage = 40
		task.DeliverableStatus = model.DeliverableStatusPending
		require.NoError(t, repo.UpdateTask(ctx, task))

		got, err := repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusInProgress, got.Status)
		assert.Equal(t, 40, got.ProgressPercentage)
		assert.Equal(t, model.DeliverableStatusPending, got.DeliverableStatus)
	})

	t.Run("Updating a missing task is not found", func(t *testing.T) {
		repo := newRepository(t)
		err := repo.UpdateTask(ctx, newTask("task-1"))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestRepositorySteps(t *testing.T) {
	ctx := context.Background()

	t.Run("Batch created steps list ordered by step number", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateSteps(ctx, []model.Step{
			newStep("step-2", "task-1", 2),
			newStep("step-1", "task-1", 1),
		}))

		steps, err := repo.ListSteps(ctx, owner, "task-1")
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, 1, steps[0].StepNumber)
		assert.Equal(t, 2, steps[1].StepNumber)
	})

	t.Run("Step documents and assistance log round trip", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateSteps(ctx, []model.Step{newStep("step-1", "task-1", 1)}))

		step, err := repo.GetStep(ctx, owner, "step-1")
		require.NoError(t, err)

		step.CompletionStatus = model.StepStatusInProgress
		step.UserInputData = map[string]any{"text": "clay, glaze, box"}
		step.AssistanceLog = append(step.AssistanceLog, model.AssistEntry{
			Timestamp: time.Now().UTC().Truncate(time.Second),
			Message:   "What am I forgetting?",
			Type:      model.AssistEntryQuestion,
		})
		require.NoError(t, repo.UpdateStep(ctx, owner, *step))

		got, err := repo.GetStep(ctx, owner, "step-1")
		require.NoError(t, err)
		assert.Equal(t, model.StepStatusInProgress, got.CompletionStatus)
		assert.Equal(t, "clay, glaze, box", got.UserInputData["text"])
		assert.Equal(t, map[string]any{"min_length": float64(20)}, got.ValidationCriteria)
		require.Len(t, got.AssistanceLog, 1)
		assert.Equal(t, model.AssistEntryQuestion, got.AssistanceLog[0].Type)
	})

	t.Run("Steps are scoped to their owner", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateSteps(ctx, []model.Step{newStep("step-1", "task-1", 1)}))

		_, err := repo.GetStep(ctx, "someone-else", "step-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Step updates are scoped to their owner", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateSteps(ctx, []model.Step{newStep("step-1", "task-1", 1)}))

		step, err := repo.GetStep(ctx, owner, "step-1")
		require.NoError(t, err)
		step.CompletionStatus = model.StepStatusCompleted

		err = repo.UpdateStep(ctx, "someone-else", *step)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)

		got, err := repo.GetStep(ctx, owner, "step-1")
		require.NoError(t, err)
		assert.Equal(t, model.StepStatusPending, got.CompletionStatus)
	})
}

func TestRepositoryValidations(t *testing.T) {
	ctx := context.Background()

	repo := newRepository(t)
	require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
	require.NoError(t, repo.CreateSteps(ctx, []model.Step{newStep("step-1", "task-1", 1)}))

	now := time.Now().UTC().Truncate(time.Second)
	for i, result := range []model.ValidationResult{model.ValidationResultFailed, model.ValidationResultPassed} {
		require.NoError(t, repo.CreateValidation(ctx, model.ValidationRecord{
			ID:        "record-" + string(rune('1'+i)),
			StepID:    "step-1",
			OwnerID:   owner,
			Type:      model.ValidationTypeAutomatic,
			Result:    result,
			Reason:    "because",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := repo.ListValidations(ctx, owner, "step-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ValidationResultFailed, records[0].Result)
	assert.Equal(t, model.ValidationResultPassed, records[1].Result)
}

func TestRepositoryDeliverables(t *testing.T) {
	ctx := context.Background()

	newDeliverable := func(id string) model.Deliverable {
		return model.Deliverable{
			ID:        id,
			TaskID:    "task-1",
			OwnerID:   owner,
			Title:     "Deliverable: Calculate the price of my ceramic mugs",
			Content:   "# Executive summary\nSolid pricing.",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Stored deliverables round trip", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateDeliverable(ctx, newDeliverable("deliv-1")))

		got, err := repo.GetDeliverableByTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, "deliv-1", got.ID)
		assert.Contains(t, got.Content, "Executive summary")
	})

	t.Run("One deliverable per task", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))
		require.NoError(t, repo.CreateDeliverable(ctx, newDeliverable("deliv-1")))

		err := repo.CreateDeliverable(ctx, newDeliverable("deliv-2"))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrAlreadyExists)
	})

	t.Run("Missing deliverable is not found", func(t *testing.T) {
		repo := newRepository(t)
		require.NoError(t, repo.CreateTask(ctx, newTask("task-1")))

		_, err := repo.GetDeliverableByTask(ctx, owner, "task-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
