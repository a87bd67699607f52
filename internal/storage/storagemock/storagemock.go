// Package storagemock contains testify mocks for the storage interfaces.
package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/stepflow/internal/model"
)

// MockRepository is a mock implementation of storage.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a new MockRepository that asserts its
// expectations at the end of the test.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) CreateTask(ctx context.Context, t model.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	args := m.Called(ctx, ownerID, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockRepository) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockRepository) UpdateTask(ctx context.Context, t model.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) CreateSteps(ctx context.Context, steps []model.Step) error {
	args := m.Called(ctx, steps)
	return args.Error(0)
}

func (m *MockRepository) GetStep(ctx context.Context, ownerID, id string) (*model.Step, error) {
	args := m.Called(ctx, ownerID, id)
	step, _ := args.Get(0).(*model.Step)
	return step, args.Error(1)
}

func (m *MockRepository) ListSteps(ctx context.Context, ownerID, taskID string) ([]model.Step, error) {
	args := m.Called(ctx, ownerID, taskID)
	steps, _ := args.Get(0).([]model.Step)
	return steps, args.Error(1)
}

func (m *MockRepository) UpdateStep(ctx context.Context, ownerID string, s model.Step) error {
	args := m.Called(ctx, ownerID, s)
	return args.Error(0)
}

func (m *MockRepository) CreateValidation(ctx context.Context, v model.ValidationRecord) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRepository) ListValidations(ctx context.Context, ownerID, stepID string) ([]model.ValidationRecord, error) {
	args := m.Called(ctx, ownerID, stepID)
	records, _ := args.Get(0).([]model.ValidationRecord)
	return records, args.Error(1)
}

func (m *MockRepository) CreateDeliverable(ctx context.Context, d model.Deliverable) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockRepository) GetDeliverableByTask(ctx context.Context, ownerID, taskID string) (*model.Deliverable, error) {
	args := m.Called(ctx, ownerID, taskID)
	d, _ := args.Get(0).(*model.Deliverable)
	return d, args.Error(1)
}
