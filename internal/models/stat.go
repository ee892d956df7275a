package models

import "time"

// ItemStat is the lifetime performance record for one vocabulary item.
// Created lazily on first attempt, never deleted. Counters are monotonically
// non-decreasing; Correct never exceeds Attempts.
type ItemStat struct {
	Attempts     uint      `json:"attempts"`
	Correct      uint      `json:"correct"`
	HintsUsed    uint      `json:"hints_used"`
	ExamplesUsed uint      `json:"examples_used"`
	LastSeen     time.Time `json:"last_seen"`
	IntervalDays uint      `json:"interval_days"` // 0 means never scheduled
	NextReview   time.Time `json:"next_review"`
}

// Clamp repairs a violated counter invariant in place. Corruption from an
// upstream bug is recoverable, so this clamps instead of failing.
func (s *ItemStat) Clamp() {
	if s.Correct > s.Attempts {
		s.Correct = s.Attempts
	}
}

// Accuracy returns Correct/Attempts, or 0 for an unattempted item.
func (s ItemStat) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// Mastered reports whether the item counts toward lifetime mastery:
// at least two attempts with an accuracy of 0.7 or better.
func (s ItemStat) Mastered() bool {
	return s.Attempts >= 2 && s.Accuracy() >= 0.7
}

// Due reports whether the item has been attempted and its next review time
// has passed.
func (s ItemStat) Due(now time.Time) bool {
	return s.Attempts > 0 && !s.NextReview.After(now)
}
