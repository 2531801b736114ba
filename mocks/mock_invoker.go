package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"conicore/internal/engine"
)

// MockInvoker is a mock implementation of engine.Invoker.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, d engine.ProviderDescriptor, task engine.Task) (*engine.InvokeResult, error) {
	args := m.Called(ctx, d, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.InvokeResult), args.Error(1)
}
