package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository. Used in
// tests and the fake serving mode.
type Repository struct {
	tasks        map[string]model.Task
	steps        map[string]model.Step
	validations  map[string][]model.ValidationRecord
	deliverables map[string]model.Deliverable // Keyed by task ID.
	mu           sync.RWMutex
	logger       log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:        make(map[string]model.Task),
		steps:        make(map[string]model.Step),
		validations:  make(map[string][]model.ValidationRecord),
		deliverables: make(map[string]model.Deliverable),
		logger:       cfg.Logger,
	}, nil
}

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrAlreadyExists)
	}

	r.tasks[t.ID] = t
	r.logger.Debugf("Created task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by ID, scoped to its owner.
func (r *Repository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	taskCopy := task
	return &taskCopy, nil
}

// ListTasks returns all tasks of an owner, newest first.
func (r *Repository) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []model.Task
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.tasks[t.ID] = t
	r.logger.Debugf("Updated task in repository: %s", t.ID)

	return nil
}

// CreateSteps inserts all steps of a task together.
func (r *Repository) CreateSteps(ctx context.Context, steps []model.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range steps {
		if _, ok := r.steps[s.ID]; ok {
			return fmt.Errorf("step %s: %w", s.ID, model.ErrAlreadyExists)
		}
	}
	for _, s := range steps {
		r.steps[s.ID] = copyStep(s)
	}

	if len(steps) > 0 {
		r.logger.Debugf("Created %d steps for task %s", len(steps), steps[0].TaskID)
	}
	return nil
}

// GetStep retrieves a step by ID, owner scoped through the owning task.
func (r *Repository) GetStep(ctx context.Context, ownerID, id string) (*model.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %s: %w", id, model.ErrNotFound)
	}
	task, ok := r.tasks[step.TaskID]
	if !ok || task.OwnerID != ownerID {
		return nil, fmt.Errorf("step %s: %w", id, model.ErrNotFound)
	}

	stepCopy := copyStep(step)
	return &stepCopy, nil
}

// ListSteps returns the steps of a task ordered by step number.
func (r *Repository) ListSteps(ctx context.Context, ownerID, taskID string) ([]model.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return nil, nil
	}

	var steps []model.Step
	for _, s := range r.steps {
		if s.TaskID == taskID {
			steps = append(steps, copyStep(s))
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })

	return steps, nil
}

// UpdateStep replaces a step atomically, scoped through the owning task.
// Last write wins.
func (r *Repository) UpdateStep(ctx context.Context, ownerID string, s model.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.steps[s.ID]
	if !ok {
		return fmt.Errorf("step %s: %w", s.ID, model.ErrNotFound)
	}
	task, ok := r.tasks[current.TaskID]
	if !ok || task.OwnerID != ownerID {
		return fmt.Errorf("step %s: %w", s.ID, model.ErrNotFound)
	}

	r.steps[s.ID] = copyStep(s)
	r.logger.Debugf("Updated step in repository: %s", s.ID)

	return nil
}

// CreateValidation stores one validation attempt audit record.
func (r *Repository) CreateValidation(ctx context.Context, v model.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.validations[v.StepID] = append(r.validations[v.StepID], v)
	r.logger.Debugf("Created validation record for step %s: %s", v.StepID, v.Result)

	return nil
}

// ListValidations returns the validation attempts of a step, oldest first.
func (r *Repository) ListValidations(ctx context.Context, ownerID, stepID string) ([]model.ValidationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []model.ValidationRecord
	for _, v := range r.validations[stepID] {
		if v.OwnerID == ownerID {
			records = append(records, v)
		}
	}

	return records, nil
}

// CreateDeliverable stores the final deliverable of a task, at most one per
// task.
func (r *Repository) CreateDeliverable(ctx context.Context, d model.Deliverable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.deliverables[d.TaskID]; ok {
		return fmt.Errorf("deliverable for task %s: %w", d.TaskID, model.ErrAlreadyExists)
	}

	r.deliverables[d.TaskID] = d
	r.logger.Debugf("Created deliverable for task %s", d.TaskID)

	return nil
}

// GetDeliverableByTask returns the deliverable of a task if it exists.
func (r *Repository) GetDeliverableByTask(ctx context.Context, ownerID, taskID string) (*model.Deliverable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.deliverables[taskID]
	if !ok || d.OwnerID != ownerID {
		return nil, fmt.Errorf("deliverable for task %s: %w", taskID, model.ErrNotFound)
	}

	dCopy := d
	return &dCopy, nil
}

// copyStep deep copies the step documents so callers never share mutable
// state with the repository.
func copyStep(s model.Step) model.Step {
	c := s
	if s.UserInputData != nil {
		c.UserInputData = make(map[string]any, len(s.UserInputData))
		for k, v := range s.UserInputData {
			c.UserInputData[k] = v
		}
	}
	if s.ValidationCriteria != nil {
		c.ValidationCriteria = make(map[string]any, len(s.ValidationCriteria))
		for k, v := range s.ValidationCriteria {
			c.ValidationCriteria[k] = v
		}
	}
	if s.AssistanceLog != nil {
		c.AssistanceLog = append([]model.AssistEntry(nil), s.AssistanceLog...)
	}
	return c
}
