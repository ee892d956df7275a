package repository

import (
	"context"

	"github.com/lauri/vocaflow/internal/models"
)

// ProfileRepository handles the canonical per-learner record. All operations
// are independently failable; a missing record is (nil, nil), not an error.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.ProfileRecord, error)
	Upsert(ctx context.Context, userID string, rec models.ProfileRecord) error
}

// StagingRepository handles the short-lived daily progress snapshots keyed by
// (userID, date). Upsert fully replaces the record's item ids and progress.
type StagingRepository interface {
	GetForDate(ctx context.Context, userID, date string) (*models.DailyProgressRecord, error)
	GetLatest(ctx context.Context, userID string) (*models.DailyProgressRecord, error)
	Upsert(ctx context.Context, userID string, rec models.DailyProgressRecord) error
	Delete(ctx context.Context, userID, date string) error
	DeleteOlderThan(ctx context.Context, date string) (int64, error)
}

// ContentRepository provides the vocabulary corpus and grammar rule sets.
// The scheduler never validates or mutates this data.
type ContentRepository interface {
	Pools(ctx context.Context) (*models.ItemPool, error)
	GrammarRules(ctx context.Context) ([]models.GrammarRule, error)
}
