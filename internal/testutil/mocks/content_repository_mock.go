package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lauri/vocaflow/internal/models"
)

// MockContentRepository is a mock implementation of repository.ContentRepository
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) Pools(ctx context.Context) (*models.ItemPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemPool), args.Error(1)
}

func (m *MockContentRepository) GrammarRules(ctx context.Context) ([]models.GrammarRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GrammarRule), args.Error(1)
}
