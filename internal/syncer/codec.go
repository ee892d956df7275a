package syncer

import (
	"time"

	"github.com/lauri/vocaflow/internal/models"
)

// DateOf formats a timestamp as the calendar-day key used by staging records
// and profile rollover checks.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// Compress converts an in-memory stat to its persisted wire form. Timestamps
// are truncated to whole seconds; the truncation is the only loss.
func Compress(stat models.ItemStat) models.CompressedStat {
	return models.CompressedStat{
		A:  stat.Attempts,
		C:  stat.Correct,
		H:  stat.HintsUsed,
		E:  stat.ExamplesUsed,
		T:  toSeconds(stat.LastSeen),
		N:  toSeconds(stat.NextReview),
		IV: stat.IntervalDays,
	}
}

// Decompress converts a persisted stat back to its in-memory form.
func Decompress(c models.CompressedStat) models.ItemStat {
	return models.ItemStat{
		Attempts:     c.A,
		Correct:      c.C,
		HintsUsed:    c.H,
		ExamplesUsed: c.E,
		LastSeen:     fromSeconds(c.T),
		IntervalDays: c.IV,
		NextReview:   fromSeconds(c.N),
	}
}

// CompressMap compresses a full stat map for persistence.
func CompressMap(stats map[string]models.ItemStat) map[string]models.CompressedStat {
	out := make(map[string]models.CompressedStat, len(stats))
	for id, stat := range stats {
		out[id] = Compress(stat)
	}
	return out
}

// MergeProgress builds the in-memory stat map from the canonical record
// overlaid with a staged record. A staged stat wins over the canonical one:
// staging represents an interrupted session and is assumed fresher. Items
// absent from staging take the canonical value unchanged.
func MergeProgress(canonical, staged map[string]models.CompressedStat) map[string]models.ItemStat {
	out := make(map[string]models.ItemStat, len(canonical)+len(staged))
	for id, c := range canonical {
		out[id] = Decompress(c)
	}
	for id, c := range staged {
		out[id] = Decompress(c)
	}
	return out
}

func toSeconds(t time.Time) uint {
	if t.IsZero() {
		return 0
	}
	return uint(t.Unix())
}

func fromSeconds(s uint) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(int64(s), 0)
}
