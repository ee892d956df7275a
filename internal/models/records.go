package models

// CompressedStat is the persisted wire form of an ItemStat. Field names are
// shortened and timestamps truncated to whole unix seconds to minimize
// storage size. N == 0 means "not yet scheduled".
type CompressedStat struct {
	A  uint `json:"a"`  // attempts
	C  uint `json:"c"`  // correct
	H  uint `json:"h"`  // hints used
	E  uint `json:"e"`  // examples used
	T  uint `json:"t"`  // last seen, unix seconds
	N  uint `json:"n"`  // next review, unix seconds, 0 = unscheduled
	IV uint `json:"iv"` // interval, days
}

// DailyProgressRecord is the short-lived staging row: one per learner per
// calendar day. Progress is overwritten wholesale on each flush and the row
// is deleted when the day's challenge is finalized.
type DailyProgressRecord struct {
	Date     string                    `json:"date"` // YYYY-MM-DD
	ItemIDs  []string                  `json:"item_ids"`
	Progress map[string]CompressedStat `json:"progress"`
}

// ProfileRecord is the canonical long-lived per-learner record.
type ProfileRecord struct {
	TotalMastered       uint                      `json:"total_mastered"`
	CurrentStreak       uint                      `json:"current_streak"`
	LastActiveDate      string                    `json:"last_active_date"` // YYYY-MM-DD
	DailyCorrectToday   uint                      `json:"daily_correct_today"`
	DailyCompletedToday bool                      `json:"daily_completed_today"`
	Progress            map[string]CompressedStat `json:"progress"`
	ChallengeSizePref   uint                      `json:"challenge_size_pref"`
	GrammarSessions     map[string]uint           `json:"grammar_sessions"` // rule id -> fully-correct practice sessions
}
