package session

import (
	"github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/srs"
)

// SubmitAnswer records one answer: updates the item's stat through the
// calculator, advances the cursor, schedules a debounced staging write, and
// finalizes the challenge when the daily target is reached. A store write
// failure never blocks the answer; it surfaces as an advisory warning on the
// result.
func (s *Session) SubmitAnswer(itemID string, correct, usedHint, usedExample bool) (models.AnswerResult, error) {
	s.mu.Lock()

	if _, ok := s.items[itemID]; !ok {
		s.mu.Unlock()
		return models.AnswerResult{}, errors.NewNotFoundError("item", itemID)
	}

	now := s.now()
	prev := s.stats[itemID]
	prev.Clamp()

	sched := srs.Next(prev, correct, now)

	stat := prev
	stat.Attempts++
	if correct {
		stat.Correct++
	}
	if usedHint {
		stat.HintsUsed++
	}
	if usedExample {
		stat.ExamplesUsed++
	}
	stat.LastSeen = now
	stat.IntervalDays = sched.IntervalDays
	stat.NextReview = sched.NextReview
	s.stats[itemID] = stat
	s.touched[itemID] = true

	if s.mode == models.ModeChallenge && correct {
		s.dailyCorrect++
	}
	s.advanceLocked()

	result := models.AnswerResult{
		Correct:      correct,
		IntervalDays: sched.IntervalDays,
	}

	finalize := s.mode == models.ModeChallenge && !s.dayCompleted && s.dailyCorrect >= s.dailyTarget
	if finalize {
		s.dayCompleted = true
		result.ChallengeComplete = true
	}
	s.sync.MarkDirty(s)
	s.log.Debug("answer: item=%s, correct=%v, interval=%d, daily=%d/%d",
		itemID, correct, sched.IntervalDays, s.dailyCorrect, s.dailyTarget)

	var profile models.ProfileRecord
	var date string
	if finalize {
		profile = s.buildProfileLocked()
		date = s.today
	}
	s.mu.Unlock()

	if finalize {
		if err := s.sync.Finalize(profile, date); err != nil {
			// The day is still complete; the write failure is advisory.
			s.log.Warn("finalize write failed: %v", err)
		}
		s.log.Info("daily challenge complete: correct=%d, target=%d", profile.DailyCorrectToday, profile.ChallengeSizePref)
	}

	if err := s.sync.LastWriteError(); err != nil {
		result.SaveWarning = saveWarningText
	}
	return result, nil
}

// Advance skips the current item without answering it.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
}

// advanceLocked moves the cursor forward. An exhausted working set is
// reshuffled in place and the cursor wraps to 0; the session never runs out
// of material.
func (s *Session) advanceLocked() {
	s.cursor++
	if s.cursor < len(s.working) {
		return
	}
	s.rng.Shuffle(len(s.working), func(i, j int) {
		s.working[i], s.working[j] = s.working[j], s.working[i]
	})
	s.cursor = 0
	s.rounds++
	s.log.Debug("working set exhausted, reshuffled: round=%d, size=%d", s.rounds, len(s.working))
}

// RecordGrammarSession counts a finished grammar practice session toward the
// rule's mastery tally. Only fully-correct sessions count.
func (s *Session) RecordGrammarSession(ruleID string, fullyCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for _, rule := range s.grammarRules {
		if rule.ID == ruleID {
			known = true
			break
		}
	}
	if !known {
		return errors.NewNotFoundError("grammar rule", ruleID)
	}
	if fullyCorrect {
		s.grammarSessions[ruleID]++
		s.log.Debug("grammar session recorded: rule=%s, total=%d", ruleID, s.grammarSessions[ruleID])
	}
	return nil
}
