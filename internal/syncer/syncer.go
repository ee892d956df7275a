package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/repository"
)

// Source supplies a consistent snapshot of the in-memory session state at
// flush time. Implemented by the session; called on the flush goroutine, so
// implementations take their own lock. date is the session's logical day, so
// a flush firing across midnight still lands under the day it belongs to.
type Source interface {
	ProgressSnapshot() (date string, itemIDs []string, progress map[string]models.CompressedStat)
}

// Syncer mirrors in-memory stats to the two durable stores: debounced writes
// to the daily staging record and point-in-time flushes to the canonical
// profile record. One Syncer per live session.
type Syncer struct {
	profiles repository.ProfileRepository
	staging  repository.StagingRepository
	userID   string
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64 // bumps on every reschedule/cancel; stale timers check it

	errMu    sync.Mutex
	writeErr error

	queue *writeQueue
	log   *logger.Logger
}

// New creates a Syncer for one learner and starts its write queue.
func New(ctx context.Context, profiles repository.ProfileRepository, staging repository.StagingRepository, userID string, debounce time.Duration) *Syncer {
	s := &Syncer{
		profiles: profiles,
		staging:  staging,
		userID:   userID,
		debounce: debounce,
		queue:    newWriteQueue(16),
		log:      logger.Default().WithPrefix("syncer").WithField("user", userID),
	}
	s.queue.Start(ctx)
	return s
}

// MarkDirty schedules a debounced staging write. A new mutation within the
// quiet period cancels and rearms the pending timer, coalescing rapid
// successive answers into one write.
func (s *Syncer) MarkDirty(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.flushStaging(gen, src)
	})
}

func (s *Syncer) flushStaging(gen uint64, src Source) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}

	date, ids, progress := src.ProgressSnapshot()
	rec := models.DailyProgressRecord{
		Date:     date,
		ItemIDs:  ids,
		Progress: progress,
	}
	s.queue.Submit("staging-upsert", func(ctx context.Context) error {
		// A finalize or sign-out issued while this job was queued makes it
		// stale; the authoritative write must not be clobbered.
		s.mu.Lock()
		stale := gen != s.gen
		s.mu.Unlock()
		if stale {
			s.log.Debug("skipping stale staging write")
			return nil
		}
		err := s.staging.Upsert(ctx, s.userID, rec)
		s.recordWriteResult("staging upsert", err)
		return err
	})
}

// CancelPending invalidates any scheduled or queued debounced write.
func (s *Syncer) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// FlushStagingNow writes the staging record synchronously, cancelling any
// pending debounced write first. Used as the sign-out safety net.
func (s *Syncer) FlushStagingNow(src Source) error {
	s.CancelPending()

	date, ids, progress := src.ProgressSnapshot()
	rec := models.DailyProgressRecord{
		Date:     date,
		ItemIDs:  ids,
		Progress: progress,
	}
	err := s.queue.Do("staging-flush", func(ctx context.Context) error {
		return s.staging.Upsert(ctx, s.userID, rec)
	})
	s.recordWriteResult("staging flush", err)
	if err != nil {
		return errors.NewStoreError("staging flush", err)
	}
	return nil
}

// Finalize authoritatively writes the canonical profile record and deletes
// the staging record for the given date. Any pending debounced write is
// cancelled before the write is issued.
func (s *Syncer) Finalize(profile models.ProfileRecord, date string) error {
	s.CancelPending()

	err := s.queue.Do("finalize", func(ctx context.Context) error {
		if err := s.profiles.Upsert(ctx, s.userID, profile); err != nil {
			return err
		}
		return s.staging.Delete(ctx, s.userID, date)
	})
	s.recordWriteResult("finalize", err)
	if err != nil {
		return errors.NewStoreError("finalize", err)
	}
	s.log.Debug("finalized: date=%s, items=%d", date, len(profile.Progress))
	return nil
}

// SignOut flushes staging first (in case the canonical write is not
// reached), then writes the canonical record and clears staging.
func (s *Syncer) SignOut(src Source, profile models.ProfileRecord, date string) error {
	if err := s.FlushStagingNow(src); err != nil {
		s.log.Warn("sign-out staging safety net failed: %v", err)
	}
	return s.Finalize(profile, date)
}

// Load reads the canonical record and today's staging record. A staging
// record from a prior day is a stale interrupted session: it is discarded,
// not merged. Missing records are returned as nil without error.
func (s *Syncer) Load(ctx context.Context, today string) (*models.ProfileRecord, *models.DailyProgressRecord, error) {
	profile, err := s.profiles.Get(ctx, s.userID)
	if err != nil {
		return nil, nil, errors.NewStoreError("profile read", err)
	}

	staged, err := s.staging.GetForDate(ctx, s.userID, today)
	if err != nil {
		return nil, nil, errors.NewStoreError("staging read", err)
	}
	if staged != nil {
		return profile, staged, nil
	}

	// No record for today; a record from a prior day is a stale interrupted
	// session and gets cleaned up.
	latest, err := s.staging.GetLatest(ctx, s.userID)
	if err != nil {
		return nil, nil, errors.NewStoreError("staging read", err)
	}
	if latest != nil && latest.Date != today {
		s.log.Info("discarding stale staging record from %s", latest.Date)
		if err := s.staging.Delete(ctx, s.userID, latest.Date); err != nil {
			s.log.Warn("failed to delete stale staging record: %v", err)
		}
	}
	return profile, nil, nil
}

// LastWriteError returns the most recent background write failure, or nil.
// A later successful write clears it. Callers surface it as a non-blocking
// "progress may not be saved" notice.
func (s *Syncer) LastWriteError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.writeErr
}

func (s *Syncer) recordWriteResult(op string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err != nil {
		s.writeErr = errors.NewStoreError(op, err)
	} else {
		s.writeErr = nil
	}
}

// Close cancels pending timers and stops the write queue, finishing queued
// writes.
func (s *Syncer) Close() {
	s.CancelPending()
	s.queue.Stop()
}
