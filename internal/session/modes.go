package session

import (
	stderrors "errors"

	"github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/selector"
)

// ErrNothingToReview is returned when no attempted item falls below the
// difficult-review accuracy bar. The transition is a no-op.
var ErrNothingToReview = stderrors.New("no difficult items to review")

// StartDifficultReview snapshots the current mode and switches to a randomly
// ordered set of up to ten previously-attempted items with historical
// accuracy below 0.8. Nesting is not allowed; the snapshot is one deep.
func (s *Session) StartDifficultReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == models.ModeDifficultReview {
		return errors.NewValidationError("mode", "difficult review is already active")
	}

	var difficult []string
	for id, stat := range s.stats {
		if _, known := s.items[id]; !known {
			continue
		}
		if stat.Attempts > 0 && stat.Accuracy() < difficultAccuracyBar {
			difficult = append(difficult, id)
		}
	}
	if len(difficult) == 0 {
		return ErrNothingToReview
	}

	s.rng.Shuffle(len(difficult), func(i, j int) {
		difficult[i], difficult[j] = difficult[j], difficult[i]
	})
	if len(difficult) > difficultReviewCap {
		difficult = difficult[:difficultReviewCap]
	}

	s.snap = &snapshot{
		workingSet:   s.working,
		cursor:       s.cursor,
		dailyCorrect: s.dailyCorrect,
		priorMode:    s.mode,
	}
	s.working = difficult
	s.cursor = 0
	s.mode = models.ModeDifficultReview
	s.log.Info("difficult review started: items=%d, prior_mode=%s", len(difficult), s.snap.priorMode)
	return nil
}

// ReturnFromReview restores the mode interrupted by difficult review.
func (s *Session) ReturnFromReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil {
		return errors.NewValidationError("mode", "no interrupted mode to return to")
	}

	s.working = s.snap.workingSet
	s.cursor = s.snap.cursor
	s.dailyCorrect = s.snap.dailyCorrect
	s.mode = s.snap.priorMode
	s.snap = nil
	s.log.Info("returned from difficult review: mode=%s", s.mode)
	return nil
}

// StartReviewOfToday re-cycles exactly today's challenge items. Only offered
// after the challenge is complete; answers do not count toward any target.
func (s *Session) StartReviewOfToday() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dayCompleted {
		return errors.NewValidationError("mode", "daily challenge is not complete")
	}

	s.working = append([]string(nil), s.todaySet...)
	s.cursor = 0
	s.mode = models.ModeReview
	s.snap = nil
	s.log.Info("review of today started: items=%d", len(s.working))
	return nil
}

// StartEndless continues past the finished challenge with the unlocked pool,
// excluding today's challenge items.
func (s *Session) StartEndless() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dayCompleted {
		return errors.NewValidationError("mode", "daily challenge is not complete")
	}

	s.enterEndless()
	s.snap = nil
	s.log.Info("endless mode started: items=%d", len(s.working))
	return nil
}

// SetDailyTarget changes the learner's daily goal mid-session. If the new
// target is already met, this behaves exactly like reaching the target;
// otherwise the working set grows or shrinks to the new rotation-buffer size.
// Returns true when the change completed the challenge.
func (s *Session) SetDailyTarget(target uint) (bool, error) {
	s.mu.Lock()

	if target == 0 {
		s.mu.Unlock()
		return false, errors.NewValidationError("daily_target", "must be positive")
	}

	s.dailyTarget = target
	countsTowardTarget := s.mode != models.ModeReview && s.mode != models.ModeEndless

	if countsTowardTarget && !s.dayCompleted && s.dailyCorrect >= target {
		s.dayCompleted = true
		profile := s.buildProfileLocked()
		date := s.today
		s.mu.Unlock()

		if err := s.sync.Finalize(profile, date); err != nil {
			s.log.Warn("finalize write failed: %v", err)
		}
		s.log.Info("target lowered below progress, challenge complete: target=%d", target)
		return true, nil
	}

	if s.mode == models.ModeChallenge {
		s.resizeWorkingSetLocked(int(target) * rotationFactor)
	}
	s.mu.Unlock()
	return false, nil
}

// resizeWorkingSetLocked trims from the end or appends freshly selected
// non-duplicate items to hit the new buffer size. The existing portion is
// not re-balanced.
func (s *Session) resizeWorkingSetLocked(size int) {
	switch {
	case len(s.working) > size:
		s.working = s.working[:size]
		if s.cursor >= len(s.working) {
			s.cursor = 0
		}
	case len(s.working) < size:
		current := make(map[string]bool, len(s.working))
		for _, id := range s.working {
			current[id] = true
		}
		extra := selector.Pick(s.candidates(current), size-len(s.working), s.now(), s.rng)
		s.working = append(s.working, idsOf(extra)...)
	}
	s.todaySet = append([]string(nil), s.working...)
	s.log.Debug("working set resized: size=%d", len(s.working))
}

// SignOut flushes staging as a safety net, writes the canonical record, and
// releases the syncer. The session must not be used afterwards.
func (s *Session) SignOut() error {
	s.mu.Lock()
	date, ids, progress := s.progressSnapshotLocked()
	profile := s.buildProfileLocked()
	s.mu.Unlock()

	err := s.sync.SignOut(frozenSource{date: date, ids: ids, progress: progress}, profile, date)
	s.sync.Close()
	if err != nil {
		s.log.Warn("sign-out flush failed: %v", err)
		return err
	}
	s.log.Info("signed out")
	return nil
}
