package selector

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/lauri/vocaflow/internal/models"
)

// categoryRatios is the target share of each lexical category in a balanced
// working set. Ratios sum to 1.
var categoryRatios = []struct {
	Category models.Category
	Ratio    float64
}{
	{models.CategoryNoun, 0.38},
	{models.CategoryVerb, 0.27},
	{models.CategoryAdjective, 0.17},
	{models.CategoryAdverb, 0.09},
	{models.CategoryExpression, 0.05},
	{models.CategoryOther, 0.04},
}

// Candidate pairs an item with its performance record. Stat is nil for items
// that have never been attempted.
type Candidate struct {
	Item models.Item
	Stat *models.ItemStat
}

// Pick builds a balanced working set of size min(n, len(pool)) from the
// candidate pool. Selection follows urgency (overdue first, then new, then
// soonest-due) blended with the category quota table; the returned order is
// randomized for presentation. Total function: never fails on well-formed
// input.
func Pick(pool []Candidate, n int, now time.Time, rng *rand.Rand) []models.Item {
	if n <= 0 || len(pool) == 0 {
		return []models.Item{}
	}
	if n > len(pool) {
		n = len(pool)
	}

	ordered := prioritize(pool, now, rng)

	picked := make([]bool, len(ordered))
	count := 0

	// Quota pass: one walk of the priority list per category, greedily
	// taking up to max(1, round(n*ratio)) items of that category.
	for _, cr := range categoryRatios {
		quota := int(math.Round(float64(n) * cr.Ratio))
		if quota < 1 {
			quota = 1
		}
		taken := 0
		for i, c := range ordered {
			if count >= n || taken >= quota {
				break
			}
			if picked[i] || c.Item.Category.Normalize() != cr.Category {
				continue
			}
			picked[i] = true
			taken++
			count++
		}
	}

	// Backfill pass: under-filled quotas redistribute by walking the full
	// priority list again, so urgency is never sacrificed when balance is
	// infeasible.
	for i := range ordered {
		if count >= n {
			break
		}
		if picked[i] {
			continue
		}
		picked[i] = true
		count++
	}

	// Picked items keep their priority order, then the presentation order
	// is shuffled. Selection order and presentation order are distinct.
	result := make([]models.Item, 0, count)
	for i, c := range ordered {
		if picked[i] {
			result = append(result, c.Item)
		}
	}
	rng.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

// prioritize partitions the pool into due / new / future buckets and
// concatenates them into a single priority-ordered list.
func prioritize(pool []Candidate, now time.Time, rng *rand.Rand) []Candidate {
	var due, fresh, future []Candidate
	for _, c := range pool {
		switch {
		case c.Stat == nil || c.Stat.Attempts == 0:
			fresh = append(fresh, c)
		case c.Stat.Due(now):
			due = append(due, c)
		default:
			future = append(future, c)
		}
	}

	// Most-overdue first.
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Stat.NextReview.Before(due[j].Stat.NextReview)
	})
	// Soonest-due first.
	sort.SliceStable(future, func(i, j int) bool {
		return future[i].Stat.NextReview.Before(future[j].Stat.NextReview)
	})
	rng.Shuffle(len(fresh), func(i, j int) {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	})

	ordered := make([]Candidate, 0, len(pool))
	ordered = append(ordered, due...)
	ordered = append(ordered, fresh...)
	ordered = append(ordered, future...)
	return ordered
}
