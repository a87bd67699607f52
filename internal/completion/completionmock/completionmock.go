// Package completionmock contains testify mocks for the completion client.
package completionmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/stepflow/internal/completion"
)

// MockClient is a mock implementation of completion.Client.
type MockClient struct {
	mock.Mock
}

// NewMockClient creates a new MockClient that asserts its expectations at
// the end of the test.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) Complete(ctx context.Context, systemPrompt string, msgs []completion.Message) (string, error) {
	args := m.Called(ctx, systemPrompt, msgs)
	return args.String(0), args.Error(1)
}
