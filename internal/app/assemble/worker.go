package assemble

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/stepflow/internal/log"
)

// job identifies one queued assembly.
type job struct {
	ownerID string
	taskID  string
}

// WorkerConfig is the configuration for the assembly worker.
type WorkerConfig struct {
	Service *Service
	// QueueSize bounds the pending assemblies. Enqueue on a full queue is
	// rejected, the deliverable stays retryable by hand.
	QueueSize int
	// Timeout bounds one assembly run.
	Timeout time.Duration
	Logger  log.Logger
}

func (c *WorkerConfig) defaults() error {
	if c.Service == nil {
		return fmt.Errorf("assembly service is required")
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.AssembleWorker"})
	return nil
}

// Worker runs deliverable assemblies in the background, decoupled from the
// request that completed the task.
type Worker struct {
	svc     *Service
	queue   chan job
	timeout time.Duration
	logger  log.Logger
}

// NewWorker creates a new assembly worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		svc:     cfg.Service,
		queue:   make(chan job, cfg.QueueSize),
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// Enqueue queues one task for assembly. Never blocks: returns false when
// the queue is full.
func (w *Worker) Enqueue(ownerID, taskID string) bool {
	select {
	case w.queue <- job{ownerID: ownerID, taskID: taskID}:
		return true
	default:
		w.logger.Warningf("Assembly queue full, rejected task %s", taskID)
		return false
	}
}

// Run processes queued assemblies until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infof("Assembly worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Assembly worker stopped")
			return nil
		case j := <-w.queue:
			w.process(ctx, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	_, err := w.svc.Assemble(ctx, Request{OwnerID: j.ownerID, TaskID: j.taskID})
	if err != nil {
		// The task keeps deliverable status failed, a manual assemble can
		// retry it.
		w.logger.Errorf("Background assembly of task %s failed: %s", j.taskID, err)
	}
}
