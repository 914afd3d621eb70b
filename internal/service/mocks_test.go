package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/llm"
)

// MockGenerator mocks the TextGenerator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, tasks map[string]llm.Task) (map[string]string, error) {
	args := m.Called(ctx, tasks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockGenerator) Moderate(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

func (m *MockGenerator) Relevance(ctx context.Context, task llm.Task) (bool, error) {
	args := m.Called(ctx, task)
	return args.Bool(0), args.Error(1)
}

// MockSessionStore mocks the SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// tasksNamed matches a Complete batch with exactly the given task names
func tasksNamed(names ...string) interface{} {
	return mock.MatchedBy(func(tasks map[string]llm.Task) bool {
		if len(tasks) != len(names) {
			return false
		}
		for _, n := range names {
			if _, ok := tasks[n]; !ok {
				return false
			}
		}
		return true
	})
}
