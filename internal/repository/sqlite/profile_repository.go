package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/repository"
)

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository implementation
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: user=%s", userID)

	var rec models.ProfileRecord
	var completed int
	var progressRaw, grammarRaw string
	err := r.db.QueryRowContext(ctx, `
SELECT total_mastered, current_streak, last_active_date, daily_correct_today, daily_completed_today, challenge_size_pref, progress, grammar_sessions
FROM profiles
WHERE user_id = ?
`, userID).Scan(&rec.TotalMastered, &rec.CurrentStreak, &rec.LastActiveDate, &rec.DailyCorrectToday, &completed, &rec.ChallengeSizePref, &progressRaw, &grammarRaw)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("profile not found: user=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, err
	}

	rec.DailyCompletedToday = completed != 0
	if err := unmarshalJSON(progressRaw, &rec.Progress); err != nil {
		log.Error("corrupt progress column for user %s: %v", userID, err)
		return nil, err
	}
	if err := unmarshalJSON(grammarRaw, &rec.GrammarSessions); err != nil {
		log.Error("corrupt grammar_sessions column for user %s: %v", userID, err)
		return nil, err
	}
	return &rec, nil
}

func (r *profileRepository) Upsert(ctx context.Context, userID string, rec models.ProfileRecord) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("upserting profile: user=%s, mastered=%d, streak=%d", userID, rec.TotalMastered, rec.CurrentStreak)

	progressRaw, err := marshalJSON(rec.Progress)
	if err != nil {
		return err
	}
	grammarRaw, err := marshalJSON(rec.GrammarSessions)
	if err != nil {
		return err
	}

	completed := 0
	if rec.DailyCompletedToday {
		completed = 1
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, total_mastered, current_streak, last_active_date, daily_correct_today, daily_completed_today, challenge_size_pref, progress, grammar_sessions, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    total_mastered = excluded.total_mastered,
    current_streak = excluded.current_streak,
    last_active_date = excluded.last_active_date,
    daily_correct_today = excluded.daily_correct_today,
    daily_completed_today = excluded.daily_completed_today,
    challenge_size_pref = excluded.challenge_size_pref,
    progress = excluded.progress,
    grammar_sessions = excluded.grammar_sessions,
    updated_at = excluded.updated_at
`, userID, rec.TotalMastered, rec.CurrentStreak, rec.LastActiveDate, rec.DailyCorrectToday, completed, rec.ChallengeSizePref, progressRaw, grammarRaw, time.Now().UTC())
	if err != nil {
		log.Error("failed to upsert profile: %v", err)
	}
	return err
}
