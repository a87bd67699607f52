package assemble_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/completion/completionmock"
	"github.com/slok/stepflow/internal/model"
)

func TestWorkerProcessesQueuedAssembly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := seed(t, model.StepStatusCompleted)
	client := completionmock.NewMockClient(t)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("document", nil)

	worker, err := assemble.NewWorker(assemble.WorkerConfig{Service: newService(t, repo, client)})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.True(t, worker.Enqueue(owner, "task-1"))

	require.Eventually(t, func() bool {
		_, err := repo.GetDeliverableByTask(context.Background(), owner, "task-1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}

func TestWorkerEnqueueFullQueue(t *testing.T) {
	repo := seed(t, model.StepStatusCompleted)
	client := completionmock.NewMockClient(t)

	// Worker never runs, the queue fills up.
	worker, err := assemble.NewWorker(assemble.WorkerConfig{
		Service:   newService(t, repo, client),
		QueueSize: 1,
	})
	require.NoError(t, err)

	assert.True(t, worker.Enqueue(owner, "task-1"))
	assert.False(t, worker.Enqueue(owner, "task-1"))
}
