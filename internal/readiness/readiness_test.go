package readiness_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/readiness"
)

// buildInput constructs an Input where the given shares of each pool are
// mastered: coreV/extV of 100 vocabulary items each, coreG/extG of 20 rules
// each.
func buildInput(coreV, extV, coreG, extG float64) readiness.Input {
	in := readiness.Input{
		Stats:           map[string]models.ItemStat{},
		GrammarSessions: map[string]uint{},
	}

	mastered := models.ItemStat{Attempts: 10, Correct: 9, LastSeen: time.Now()}
	addPool := func(prefix string, frac float64) []models.Item {
		pool := make([]models.Item, 0, 100)
		for i := 0; i < 100; i++ {
			id := fmt.Sprintf("%s%d", prefix, i)
			pool = append(pool, models.Item{ID: id})
			if float64(i) < frac*100 {
				in.Stats[id] = mastered
			}
		}
		return pool
	}
	addRules := func(prefix string, frac float64) []models.GrammarRule {
		rules := make([]models.GrammarRule, 0, 20)
		for i := 0; i < 20; i++ {
			id := fmt.Sprintf("%s%d", prefix, i)
			rules = append(rules, models.GrammarRule{ID: id})
			if float64(i) < frac*20 {
				in.GrammarSessions[id] = 3
			}
		}
		return rules
	}

	in.CorePool = addPool("cv", coreV)
	in.ExtendedPool = addPool("ev", extV)
	in.CoreRules = addRules("cg", coreG)
	in.ExtendedRules = addRules("eg", extG)
	return in
}

func TestEvaluate_EmptyStatsIsLevelZero(t *testing.T) {
	sum := readiness.Evaluate(buildInput(0, 0, 0, 0))

	assert.Equal(t, 0, sum.Level)
	assert.GreaterOrEqual(t, sum.Progress, 0.0)
	assert.LessOrEqual(t, sum.Progress, 100.0)
}

func TestEvaluate_AllFourThresholdsRequired(t *testing.T) {
	// Level 1 thresholds: core vocab .25, ext vocab .10, core grammar .20,
	// ext grammar 0. Drop each required one below its bar in turn.
	cases := []struct {
		name                       string
		coreV, extV, coreG, extG float64
		wantLevel                  int
	}{
		{"all met", 0.25, 0.10, 0.20, 0, 1},
		{"core vocab short", 0.20, 0.10, 0.20, 0, 0},
		{"ext vocab short", 0.25, 0.05, 0.20, 0, 0},
		{"core grammar short", 0.25, 0.10, 0.15, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := readiness.Evaluate(buildInput(tc.coreV, tc.extV, tc.coreG, tc.extG))
			assert.Equal(t, tc.wantLevel, sum.Level)
		})
	}
}

func TestEvaluate_HighestQualifyingLevelWins(t *testing.T) {
	// Level 4 thresholds: .70 / .50 / .65 / .45; level 5 needs .80/.65/.80/.60.
	sum := readiness.Evaluate(buildInput(0.75, 0.55, 0.70, 0.50))

	assert.Equal(t, 4, sum.Level)
}

func TestEvaluate_MaxLevelReportsFullProgress(t *testing.T) {
	sum := readiness.Evaluate(buildInput(1, 1, 1, 1))

	assert.Equal(t, readiness.MaxLevel, sum.Level)
	assert.Equal(t, 100.0, sum.Progress)
}

func TestEvaluate_ProgressGrowsWithMastery(t *testing.T) {
	low := readiness.Evaluate(buildInput(0.05, 0, 0, 0))
	high := readiness.Evaluate(buildInput(0.20, 0.08, 0.15, 0))

	require.Equal(t, 0, low.Level)
	require.Equal(t, 0, high.Level)
	assert.Greater(t, high.Progress, low.Progress)
}

func TestEvaluate_ProgressBounds(t *testing.T) {
	for _, frac := range []float64{0, 0.1, 0.33, 0.5, 0.77, 0.9, 1} {
		sum := readiness.Evaluate(buildInput(frac, frac, frac, frac))
		assert.GreaterOrEqual(t, sum.Progress, 0.0, "frac=%v", frac)
		assert.LessOrEqual(t, sum.Progress, 100.0, "frac=%v", frac)
	}
}

func TestEvaluate_FlatSubThresholdContributesNoWeight(t *testing.T) {
	// Extended grammar stays at 0 between levels 0 and 1, so a learner with
	// zero extended-grammar mastery still reports full grammar progress once
	// core grammar meets the next bar.
	sum := readiness.Evaluate(buildInput(0, 0, 0.20, 0))

	require.Equal(t, 0, sum.Level)
	// Grammar track fully advanced (core at bar, extended flat) = 40 points.
	assert.InDelta(t, 40.0, sum.Progress, 0.01)
}

func TestEvaluate_EmptyPoolsStayAtZero(t *testing.T) {
	sum := readiness.Evaluate(readiness.Input{})

	assert.Equal(t, 0, sum.Level)
	assert.GreaterOrEqual(t, sum.Progress, 0.0)
	assert.LessOrEqual(t, sum.Progress, 100.0)
}
