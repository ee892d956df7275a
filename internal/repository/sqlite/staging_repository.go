package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/repository"
)

type stagingRepository struct {
	db *sql.DB
}

// NewStagingRepository creates a new StagingRepository implementation
func NewStagingRepository(db *sql.DB) repository.StagingRepository {
	return &stagingRepository{db: db}
}

func (r *stagingRepository) GetForDate(ctx context.Context, userID, date string) (*models.DailyProgressRecord, error) {
	return r.get(ctx, squirrel.Eq{"user_id": userID, "date": date})
}

func (r *stagingRepository) GetLatest(ctx context.Context, userID string) (*models.DailyProgressRecord, error) {
	return r.get(ctx, squirrel.Eq{"user_id": userID})
}

func (r *stagingRepository) get(ctx context.Context, where squirrel.Eq) (*models.DailyProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("staging_repo")

	query, args, err := sqlBuilder.
		Select("date", "item_ids", "progress").
		From("daily_staging").
		Where(where).
		OrderBy("date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		log.Error("failed to build staging query: %v", err)
		return nil, err
	}

	var rec models.DailyProgressRecord
	var idsRaw, progressRaw string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&rec.Date, &idsRaw, &progressRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get staging record: %v", err)
		return nil, err
	}

	if err := unmarshalJSON(idsRaw, &rec.ItemIDs); err != nil {
		log.Error("corrupt item_ids column for date %s: %v", rec.Date, err)
		return nil, err
	}
	if err := unmarshalJSON(progressRaw, &rec.Progress); err != nil {
		log.Error("corrupt progress column for date %s: %v", rec.Date, err)
		return nil, err
	}
	log.Debug("staging record found: date=%s, items=%d", rec.Date, len(rec.ItemIDs))
	return &rec, nil
}

func (r *stagingRepository) Upsert(ctx context.Context, userID string, rec models.DailyProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("staging_repo")
	log.Debug("upserting staging record: user=%s, date=%s, touched=%d", userID, rec.Date, len(rec.Progress))

	idsRaw, err := marshalJSON(rec.ItemIDs)
	if err != nil {
		return err
	}
	progressRaw, err := marshalJSON(rec.Progress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO daily_staging (user_id, date, item_ids, progress, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, date) DO UPDATE SET
    item_ids = excluded.item_ids,
    progress = excluded.progress,
    updated_at = excluded.updated_at
`, userID, rec.Date, idsRaw, progressRaw, time.Now().UTC())
	if err != nil {
		log.Error("failed to upsert staging record: %v", err)
	}
	return err
}

func (r *stagingRepository) Delete(ctx context.Context, userID, date string) error {
	log := logger.FromContext(ctx).WithPrefix("staging_repo")
	log.Debug("deleting staging record: user=%s, date=%s", userID, date)

	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_staging WHERE user_id = ? AND date = ?`, userID, date)
	if err != nil {
		log.Error("failed to delete staging record: %v", err)
	}
	return err
}

func (r *stagingRepository) DeleteOlderThan(ctx context.Context, date string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("staging_repo")

	query, args, err := sqlBuilder.
		Delete("daily_staging").
		Where(squirrel.Lt{"date": date}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to sweep stale staging records: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info("swept %d stale staging records older than %s", n, date)
	}
	return n, nil
}
