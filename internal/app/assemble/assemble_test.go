package assemble_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/completion/completionmock"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage/memory"
)

const owner = "local"

func seed(t *testing.T, stepStatuses ...model.StepStatus) *memory.Repository {
	ctx := context.Background()
	now := time.Now().UTC()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	require.NoError(t, repo.CreateTask(ctx, model.Task{
		ID:                "task-1",
		OwnerID:           owner,
		Title:             "Calculate the price of my ceramic mugs",
		Status:            model.TaskStatusCompleted,
		DeliverableStatus: model.DeliverableStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}))

	steps := make([]model.Step, 0, len(stepStatuses))
	for i, status := range stepStatuses {
		steps = append(steps, model.Step{
			ID:               "step-" + string(rune('1'+i)),
			TaskID:           "task-1",
			StepNumber:       i + 1,
			Title:            "Step",
			InputType:        model.InputTypeText,
			CompletionStatus: status,
			UserInputData:    map[string]any{"text": "recorded answer"},
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	require.NoError(t, repo.CreateSteps(ctx, steps))

	return repo
}

func newService(t *testing.T, repo *memory.Repository, client completion.Client) *assemble.Service {
	svc, err := assemble.NewService(assemble.ServiceConfig{Repository: repo, Completion: client})
	require.NoError(t, err)
	return svc
}

func TestServiceAssemble(t *testing.T) {
	ctx := context.Background()

	t.Run("Assembles and persists the deliverable of a finished task", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted, model.StepStatusSkipped)
		client := completionmock.NewMockClient(t)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("# Executive summary\nYour price is sound.", nil)

		d, err := newService(t, repo, client).Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		assert.NotEmpty(t, d.ID)
		assert.Equal(t, "task-1", d.TaskID)
		assert.Equal(t, "Deliverable: Calculate the price of my ceramic mugs", d.Title)
		assert.Contains(t, d.Content, "Executive summary")

		task, err := repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, model.DeliverableStatusReady, task.DeliverableStatus)

		stored, err := repo.GetDeliverableByTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, d.ID, stored.ID)
	})

	t.Run("Skipped steps stay out of the document prompt", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted, model.StepStatusSkipped)
		client := completionmock.NewMockClient(t)
		client.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(msgs []completion.Message) bool {
			return len(msgs) == 1 &&
				strings.Contains(msgs[0].Content, "Step 1") &&
				!strings.Contains(msgs[0].Content, "Step 2")
		})).Return("document", nil)

		_, err := newService(t, repo, client).Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)
	})

	t.Run("Assembly is idempotent, the existing deliverable wins", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted)
		client := completionmock.NewMockClient(t)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("document", nil).Once()

		svc := newService(t, repo, client)
		first, err := svc.Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)

		second, err := svc.Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("Unfinished task is rejected", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted, model.StepStatusInProgress)
		client := completionmock.NewMockClient(t)

		_, err := newService(t, repo, client).Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotValid)
	})

	t.Run("Failed composition marks the deliverable failed and is retryable", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted)
		client := completionmock.NewMockClient(t)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("connection refused")).Once()
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("document on retry", nil).Once()

		svc := newService(t, repo, client)
		_, err := svc.Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.Error(t, err)

		task, err := repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, model.DeliverableStatusFailed, task.DeliverableStatus)
		// The task itself never rolls back.
		assert.Equal(t, model.TaskStatusCompleted, task.Status)

		d, err := svc.Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.NoError(t, err)
		assert.Equal(t, "document on retry", d.Content)

		task, err = repo.GetTask(ctx, owner, "task-1")
		require.NoError(t, err)
		assert.Equal(t, model.DeliverableStatusReady, task.DeliverableStatus)
	})

	t.Run("Empty document is an external service failure", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted)
		client := completionmock.NewMockClient(t)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("   ", nil)

		_, err := newService(t, repo, client).Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "task-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrExternalService)
	})

	t.Run("Missing task is not found", func(t *testing.T) {
		repo := seed(t, model.StepStatusCompleted)
		client := completionmock.NewMockClient(t)

		_, err := newService(t, repo, client).Assemble(ctx, assemble.Request{OwnerID: owner, TaskID: "missing"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
