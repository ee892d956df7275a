package srs

import (
	"math"
	"time"

	"github.com/lauri/vocaflow/internal/models"
)

const (
	minEase         = 1.3
	baseEase        = 2.5
	minIntervalDays = 1
	maxIntervalDays = 180
)

// Schedule is the result of one spaced-repetition calculation.
type Schedule struct {
	IntervalDays uint
	NextReview   time.Time
}

// Next computes the review schedule for an item after one more answer.
// stat is the item's state before the answer is recorded; the zero value
// stands for a never-attempted item. Total function: always returns a
// schedule, callers clamp counters before calling.
func Next(stat models.ItemStat, correct bool, now time.Time) Schedule {
	bonus := uint(0)
	if correct {
		bonus = 1
	}
	accuracy := float64(stat.Correct+bonus) / float64(stat.Attempts+1)

	ease := baseEase + (accuracy-0.6)*3
	if ease < minEase {
		ease = minEase
	}

	var interval uint
	switch {
	case !correct:
		interval = 1
	case stat.Correct == 0:
		// First-ever correct answer.
		interval = 1
	case stat.Correct == 1:
		// Second correct answer.
		interval = 6
	default:
		prev := float64(stat.IntervalDays)
		if stat.IntervalDays == 0 {
			prev = 6
		}
		grown := math.Round(prev * ease)
		if grown < minIntervalDays {
			grown = minIntervalDays
		}
		if grown > maxIntervalDays {
			grown = maxIntervalDays
		}
		interval = uint(grown)
	}

	return Schedule{
		IntervalDays: interval,
		NextReview:   now.AddDate(0, 0, int(interval)),
	}
}
