package models

// Mode is the active session mode. Exactly one is active at a time.
type Mode string

const (
	ModeChallenge       Mode = "challenge"
	ModeReview          Mode = "review"
	ModeDifficultReview Mode = "difficult_review"
	ModeEndless         Mode = "endless"
)

// SessionView is a read-only snapshot of the live session exposed to the
// presentation layer.
type SessionView struct {
	Mode              Mode     `json:"mode"`
	WorkingSet        []string `json:"working_set"`
	Cursor            int      `json:"cursor"`
	CurrentItemID     string   `json:"current_item_id"`
	DailyCorrectCount uint     `json:"daily_correct_count"`
	DailyTarget       uint     `json:"daily_target"`
	CurrentStreak     uint     `json:"current_streak"`
	ChallengeComplete bool     `json:"challenge_complete"`
	SaveWarning       string   `json:"save_warning,omitempty"`
}

// AnswerResult reports the outcome of a submitted answer.
type AnswerResult struct {
	Correct           bool   `json:"correct"`
	IntervalDays      uint   `json:"interval_days"`
	ChallengeComplete bool   `json:"challenge_complete"`
	SaveWarning       string `json:"save_warning,omitempty"`
}

// ReadinessSummary is the derived proficiency level plus progress toward the
// next level.
type ReadinessSummary struct {
	Level    int     `json:"level"`    // 0..6
	Progress float64 `json:"progress"` // 0..100 toward Level+1
}
