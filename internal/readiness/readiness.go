package readiness

import (
	"github.com/lauri/vocaflow/internal/models"
)

// MaxLevel is the highest reachable proficiency level.
const MaxLevel = 6

// Per-level mastery-fraction thresholds, levels 0..6. Level 0 is always
// reached. Each table is monotonically non-decreasing.
var (
	coreVocabThresholds     = [MaxLevel + 1]float64{0, 0.25, 0.40, 0.55, 0.70, 0.80, 0.90}
	extendedVocabThresholds = [MaxLevel + 1]float64{0, 0.10, 0.20, 0.35, 0.50, 0.65, 0.80}
	coreGrammarThresholds   = [MaxLevel + 1]float64{0, 0.20, 0.35, 0.50, 0.65, 0.80, 0.90}
	extGrammarThresholds    = [MaxLevel + 1]float64{0, 0, 0.15, 0.30, 0.45, 0.60, 0.75}
)

const (
	vocabWeight   = 0.6
	grammarWeight = 0.4

	// A grammar rule counts as mastered after this many fully-correct
	// practice sessions.
	grammarSessionsToMaster = 2
)

// Input carries everything the evaluator reads. It never mutates any of it.
type Input struct {
	Stats           map[string]models.ItemStat
	CorePool        []models.Item
	ExtendedPool    []models.Item
	CoreRules       []models.GrammarRule
	ExtendedRules   []models.GrammarRule
	GrammarSessions map[string]uint // rule id -> fully-correct sessions
}

// Evaluate derives the learner's proficiency level and percent progress
// toward the next level. Pure read-side computation.
func Evaluate(in Input) models.ReadinessSummary {
	fracs := fractions(in)

	level := 0
	for l := 1; l <= MaxLevel; l++ {
		if meetsAll(fracs, l) {
			level = l
		} else {
			break
		}
	}

	if level == MaxLevel {
		return models.ReadinessSummary{Level: level, Progress: 100}
	}

	vocab := blend(
		advancement(fracs[0], coreVocabThresholds, level),
		advancement(fracs[1], extendedVocabThresholds, level),
		delta(coreVocabThresholds, level),
		delta(extendedVocabThresholds, level),
	)
	grammar := blend(
		advancement(fracs[2], coreGrammarThresholds, level),
		advancement(fracs[3], extGrammarThresholds, level),
		delta(coreGrammarThresholds, level),
		delta(extGrammarThresholds, level),
	)

	progress := (vocab*vocabWeight + grammar*grammarWeight) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return models.ReadinessSummary{Level: level, Progress: progress}
}

// fractions returns the four mastery fractions in threshold-table order:
// core vocab, extended vocab, core grammar, extended grammar.
func fractions(in Input) [4]float64 {
	return [4]float64{
		vocabFraction(in.Stats, in.CorePool),
		vocabFraction(in.Stats, in.ExtendedPool),
		grammarFraction(in.GrammarSessions, in.CoreRules),
		grammarFraction(in.GrammarSessions, in.ExtendedRules),
	}
}

func meetsAll(fracs [4]float64, level int) bool {
	return fracs[0] >= coreVocabThresholds[level] &&
		fracs[1] >= extendedVocabThresholds[level] &&
		fracs[2] >= coreGrammarThresholds[level] &&
		fracs[3] >= extGrammarThresholds[level]
}

func vocabFraction(stats map[string]models.ItemStat, pool []models.Item) float64 {
	if len(pool) == 0 {
		return 0
	}
	mastered := 0
	for _, item := range pool {
		if s, ok := stats[item.ID]; ok && s.Mastered() {
			mastered++
		}
	}
	return float64(mastered) / float64(len(pool))
}

func grammarFraction(sessions map[string]uint, rules []models.GrammarRule) float64 {
	if len(rules) == 0 {
		return 0
	}
	mastered := 0
	for _, rule := range rules {
		if sessions[rule.ID] >= grammarSessionsToMaster {
			mastered++
		}
	}
	return float64(mastered) / float64(len(rules))
}

// delta is how much a threshold table increases between level and level+1.
func delta(table [MaxLevel + 1]float64, level int) float64 {
	return table[level+1] - table[level]
}

// advancement is the 0..1 progress of one fraction from its current-level
// threshold toward the next-level threshold. A threshold that does not
// increase is already satisfied and reports full advancement.
func advancement(frac float64, table [MaxLevel + 1]float64, level int) float64 {
	d := delta(table, level)
	if d <= 0 {
		return 1
	}
	adv := (frac - table[level]) / d
	if adv < 0 {
		return 0
	}
	if adv > 1 {
		return 1
	}
	return adv
}

// blend averages two advancements weighted by their threshold deltas. A
// sub-threshold that does not increase between levels contributes no weight.
func blend(advA, advB, weightA, weightB float64) float64 {
	total := weightA + weightB
	if total <= 0 {
		return 1
	}
	return (advA*weightA + advB*weightB) / total
}
