package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lauri/vocaflow/internal/models"
)

// MockProfileRepository is a mock implementation of repository.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileRecord), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, userID string, rec models.ProfileRecord) error {
	args := m.Called(ctx, userID, rec)
	return args.Error(0)
}
