package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/readiness"
	"github.com/lauri/vocaflow/internal/repository"
	"github.com/lauri/vocaflow/internal/selector"
	"github.com/lauri/vocaflow/internal/syncer"
)

// rotationFactor sizes the working set as a multiple of the daily target so
// the set outlasts one pass.
const rotationFactor = 3

// difficultReviewCap bounds the difficult-review working set.
const difficultReviewCap = 10

// difficultAccuracyBar: attempted items below this historical accuracy
// qualify for difficult review.
const difficultAccuracyBar = 0.8

// Config carries the session-level tunables.
type Config struct {
	DefaultDailyTarget  uint
	PoolUnlockThreshold uint
}

// snapshot is the saved state of an interrupted mode. Difficult review never
// nests, so a single optional snapshot is enough.
type snapshot struct {
	workingSet   []string
	cursor       int
	dailyCorrect uint
	priorMode    models.Mode
}

// Session owns all mutable state for one signed-in learner: the working set,
// cursor, mode, and the in-memory stat map. It is the sole mutator of item
// stats; the syncer and readiness evaluator only read them. All exported
// methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	userID string
	cfg    Config
	now    func() time.Time
	rng    *rand.Rand
	log    *logger.Logger
	sync   *syncer.Syncer

	pool         *models.ItemPool
	items        map[string]models.Item // index over the full set
	grammarRules []models.GrammarRule

	stats           map[string]models.ItemStat
	grammarSessions map[string]uint

	mode         models.Mode
	working      []string
	cursor       int
	rounds       uint
	dailyCorrect uint
	dailyTarget  uint
	streak       uint
	today        string
	dayCompleted bool

	todaySet []string        // the finalized-or-active challenge set, for review/exclusion
	touched  map[string]bool // items answered since load, staged on flush
	snap     *snapshot
}

// Option configures a Session at construction.
type Option func(*Session)

// WithClock injects a time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand injects a random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// New loads a learner session: fetches the content pool, reads and merges the
// durable records, applies day rollover, and enters the initial mode. A
// content failure is fatal to session start; a store read failure is
// surfaced so the caller can sign the learner out rather than operate on
// partial state.
func New(ctx context.Context, userID string, content repository.ContentRepository, sy *syncer.Syncer, cfg Config, opts ...Option) (*Session, error) {
	if cfg.DefaultDailyTarget == 0 {
		cfg.DefaultDailyTarget = 10
	}

	s := &Session{
		userID:          userID,
		cfg:             cfg,
		now:             time.Now,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		log:             logger.FromContext(ctx).WithPrefix("session").WithField("user", userID),
		sync:            sy,
		stats:           map[string]models.ItemStat{},
		grammarSessions: map[string]uint{},
		touched:         map[string]bool{},
		dailyTarget:     cfg.DefaultDailyTarget,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx, content); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) load(ctx context.Context, content repository.ContentRepository) error {
	pool, err := content.Pools(ctx)
	if err != nil {
		s.log.Error("content pool load failed: %v", err)
		return errors.NewContentLoadError(err)
	}
	rules, err := content.GrammarRules(ctx)
	if err != nil {
		s.log.Error("grammar rules load failed: %v", err)
		return errors.NewContentLoadError(err)
	}
	s.pool = pool
	s.grammarRules = rules
	s.items = make(map[string]models.Item, len(pool.FullItems))
	for _, item := range pool.FullItems {
		s.items[item.ID] = item
	}
	for _, item := range pool.BeginnerItems {
		s.items[item.ID] = item
	}

	now := s.now()
	s.today = syncer.DateOf(now)

	profile, staged, err := s.sync.Load(ctx, s.today)
	if err != nil {
		return err
	}

	var stagedProgress map[string]models.CompressedStat
	var stagedIDs []string
	if staged != nil {
		stagedProgress = staged.Progress
		stagedIDs = staged.ItemIDs
	}

	if profile == nil {
		s.log.Info("no profile record, initializing fresh learner")
		s.stats = syncer.MergeProgress(nil, stagedProgress)
	} else {
		s.stats = syncer.MergeProgress(profile.Progress, stagedProgress)
		s.streak = profile.CurrentStreak
		if profile.ChallengeSizePref > 0 {
			s.dailyTarget = profile.ChallengeSizePref
		}
		for id, n := range profile.GrammarSessions {
			s.grammarSessions[id] = n
		}

		if profile.LastActiveDate == s.today {
			s.dailyCorrect = profile.DailyCorrectToday
			s.dayCompleted = profile.DailyCompletedToday
		} else {
			// Day rollover: an unfinalized previous day is discarded, and
			// the streak survives only a gap of exactly one day.
			if profile.LastActiveDate == syncer.DateOf(now.AddDate(0, 0, -1)) {
				s.streak++
			} else {
				s.streak = 0
			}
			s.dailyCorrect = 0
			s.dayCompleted = false
			s.log.Info("day rollover: last_active=%s, streak=%d", profile.LastActiveDate, s.streak)
		}
	}

	// Staged stats were answered today; keep carrying them so the next
	// staging flush does not drop them on overwrite.
	for id := range stagedProgress {
		s.touched[id] = true
	}

	stagedKnown := s.knownIDs(stagedIDs)
	if len(stagedIDs) > 0 && len(stagedKnown) == 0 {
		s.log.Warn("staged items no longer in corpus, starting fresh")
	}

	switch {
	case !s.dayCompleted && len(stagedKnown) > 0:
		// Resume the interrupted challenge with its original set.
		s.mode = models.ModeChallenge
		s.working = stagedKnown
		s.todaySet = append([]string(nil), s.working...)
		s.cursor = 0
		s.log.Info("resumed challenge from staging: items=%d, daily_correct=%d", len(s.working), s.dailyCorrect)
	case s.dayCompleted:
		// Cross-device completion: another device already finalized today.
		s.enterEndless()
		s.log.Info("challenge already completed today, entering endless mode")
	default:
		s.startChallenge()
	}
	return nil
}

// startChallenge builds a fresh challenge working set over the unlocked pool.
func (s *Session) startChallenge() {
	n := int(s.dailyTarget) * rotationFactor
	s.working = idsOf(selector.Pick(s.candidates(nil), n, s.now(), s.rng))
	s.todaySet = append([]string(nil), s.working...)
	s.cursor = 0
	s.mode = models.ModeChallenge
	s.log.Info("challenge started: target=%d, working_set=%d", s.dailyTarget, len(s.working))
}

// enterEndless switches to an unbounded rotation over the unlocked pool,
// excluding today's challenge items.
func (s *Session) enterEndless() {
	exclude := map[string]bool{}
	for _, id := range s.todaySet {
		exclude[id] = true
	}
	var ids []string
	for _, item := range s.unlocked() {
		if !exclude[item.ID] {
			ids = append(ids, item.ID)
		}
	}
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	s.working = ids
	s.cursor = 0
	s.mode = models.ModeEndless
}

// unlocked returns the item pool the learner currently has access to: the
// beginner set, or the full set once lifetime mastery crosses the threshold.
func (s *Session) unlocked() []models.Item {
	if s.totalMastered() >= s.cfg.PoolUnlockThreshold {
		return s.pool.FullItems
	}
	return s.pool.BeginnerItems
}

// candidates pairs the unlocked pool with stats, skipping excluded ids.
func (s *Session) candidates(exclude map[string]bool) []selector.Candidate {
	items := s.unlocked()
	out := make([]selector.Candidate, 0, len(items))
	for _, item := range items {
		if exclude[item.ID] {
			continue
		}
		c := selector.Candidate{Item: item}
		if stat, ok := s.stats[item.ID]; ok {
			statCopy := stat
			c.Stat = &statCopy
		}
		out = append(out, c)
	}
	return out
}

func (s *Session) totalMastered() uint {
	var n uint
	for _, stat := range s.stats {
		if stat.Mastered() {
			n++
		}
	}
	return n
}

func (s *Session) knownIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func idsOf(items []models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// View returns a read-only snapshot for the presentation layer.
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.SessionView{
		Mode:              s.mode,
		WorkingSet:        append([]string(nil), s.working...),
		Cursor:            s.cursor,
		DailyCorrectCount: s.dailyCorrect,
		DailyTarget:       s.dailyTarget,
		CurrentStreak:     s.streak,
		ChallengeComplete: s.dayCompleted,
	}
	if s.cursor >= 0 && s.cursor < len(s.working) {
		v.CurrentItemID = s.working[s.cursor]
	}
	if err := s.sync.LastWriteError(); err != nil {
		v.SaveWarning = saveWarningText
	}
	return v
}

// Item returns the content entry for an id in the learner's pool.
func (s *Session) Item(id string) (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

// Readiness derives the learner's proficiency summary from current stats.
func (s *Session) Readiness() models.ReadinessSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	extendedPool := make([]models.Item, 0, len(s.pool.FullItems))
	for _, item := range s.pool.FullItems {
		if !item.Beginner {
			extendedPool = append(extendedPool, item)
		}
	}
	var coreRules, extRules []models.GrammarRule
	for _, rule := range s.grammarRules {
		if rule.Extended {
			extRules = append(extRules, rule)
		} else {
			coreRules = append(coreRules, rule)
		}
	}

	return readiness.Evaluate(readiness.Input{
		Stats:           s.stats,
		CorePool:        s.pool.BeginnerItems,
		ExtendedPool:    extendedPool,
		CoreRules:       coreRules,
		ExtendedRules:   extRules,
		GrammarSessions: s.grammarSessions,
	})
}

// ProgressSnapshot implements syncer.Source: the session's day, today's item
// ids, and the stats touched since load, in wire form. Called on the flush
// goroutine.
func (s *Session) ProgressSnapshot() (string, []string, map[string]models.CompressedStat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressSnapshotLocked()
}

func (s *Session) progressSnapshotLocked() (string, []string, map[string]models.CompressedStat) {
	ids := append([]string(nil), s.todaySet...)
	progress := make(map[string]models.CompressedStat, len(s.touched))
	for id := range s.touched {
		progress[id] = syncer.Compress(s.stats[id])
	}
	return s.today, ids, progress
}

// frozenSource captures a snapshot for flushes issued while the caller
// cannot hold the session lock open.
type frozenSource struct {
	date     string
	ids      []string
	progress map[string]models.CompressedStat
}

func (f frozenSource) ProgressSnapshot() (string, []string, map[string]models.CompressedStat) {
	return f.date, f.ids, f.progress
}

// buildProfileLocked assembles the canonical record from current state.
func (s *Session) buildProfileLocked() models.ProfileRecord {
	grammar := make(map[string]uint, len(s.grammarSessions))
	for id, n := range s.grammarSessions {
		grammar[id] = n
	}
	return models.ProfileRecord{
		TotalMastered:       s.totalMastered(),
		CurrentStreak:       s.streak,
		LastActiveDate:      s.today,
		DailyCorrectToday:   s.dailyCorrect,
		DailyCompletedToday: s.dayCompleted,
		Progress:            syncer.CompressMap(s.stats),
		ChallengeSizePref:   s.dailyTarget,
		GrammarSessions:     grammar,
	}
}

const saveWarningText = "progress may not be saved"
