package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lauri/vocaflow/internal/models"
)

// MockStagingRepository is a mock implementation of repository.StagingRepository
type MockStagingRepository struct {
	mock.Mock
}

func (m *MockStagingRepository) GetForDate(ctx context.Context, userID, date string) (*models.DailyProgressRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyProgressRecord), args.Error(1)
}

func (m *MockStagingRepository) GetLatest(ctx context.Context, userID string) (*models.DailyProgressRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyProgressRecord), args.Error(1)
}

func (m *MockStagingRepository) Upsert(ctx context.Context, userID string, rec models.DailyProgressRecord) error {
	args := m.Called(ctx, userID, rec)
	return args.Error(0)
}

func (m *MockStagingRepository) Delete(ctx context.Context, userID, date string) error {
	args := m.Called(ctx, userID, date)
	return args.Error(0)
}

func (m *MockStagingRepository) DeleteOlderThan(ctx context.Context, date string) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}
