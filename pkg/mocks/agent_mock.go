package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/leanworks/futurestate/pkg/designagent"
)

// MockAgent is a mock implementation of designagent.Agent interface.
type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) ProposeDesigns(ctx context.Context, input designagent.Input) (*designagent.Result, error) {
	args := m.Called(ctx, input)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	result, _ := args.Get(0).(*designagent.Result)

	return result, args.Error(1)
}
