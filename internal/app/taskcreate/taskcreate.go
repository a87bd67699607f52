package taskcreate

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// ServiceConfig is the configuration for the task creation service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TaskCreate"})
	return nil
}

// Service handles task creation business logic.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new task creation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the task creation parameters.
type Request struct {
	OwnerID     string
	Title       string
	Description string
}

// Create creates a new pending task. Steps are not generated here, the
// caller decides when to decompose the task.
func (s *Service) Create(ctx context.Context, req Request) (*model.Task, error) {
	now := time.Now().UTC()
	task := model.Task{
		ID:                ulid.Make().String(),
		OwnerID:           req.OwnerID,
		Title:             req.Title,
		Description:       req.Description,
		Status:            model.TaskStatusPending,
		DeliverableStatus: model.DeliverableStatusNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("could not save task: %w", err)
	}

	s.logger.Infof("Created task: %q (%s)", task.Title, task.ID)

	return &task, nil
}
