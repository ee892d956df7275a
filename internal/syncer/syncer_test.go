package syncer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/syncer"
	"github.com/lauri/vocaflow/internal/testutil/mocks"
)

type fakeSource struct {
	date string
	ids  []string
	prog map[string]models.CompressedStat
}

func (f fakeSource) ProgressSnapshot() (string, []string, map[string]models.CompressedStat) {
	return f.date, f.ids, f.prog
}

func newSyncer(t *testing.T, debounce time.Duration) (*syncer.Syncer, *mocks.MockProfileRepository, *mocks.MockStagingRepository) {
	t.Helper()
	profiles := new(mocks.MockProfileRepository)
	staging := new(mocks.MockStagingRepository)
	s := syncer.New(context.Background(), profiles, staging, "learner-1", debounce)
	t.Cleanup(s.Close)
	return s, profiles, staging
}

func TestMarkDirty_CoalescesRapidMutations(t *testing.T) {
	s, _, staging := newSyncer(t, 40*time.Millisecond)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{"a": {A: 1, C: 1}}}
	for i := 0; i < 5; i++ {
		s.MarkDirty(src)
		time.Sleep(5 * time.Millisecond)
	}

	// One quiet period after the last mutation, one write.
	time.Sleep(150 * time.Millisecond)
	staging.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestMarkDirty_RearmsAfterFlush(t *testing.T) {
	s, _, staging := newSyncer(t, 20*time.Millisecond)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	s.MarkDirty(src)
	time.Sleep(80 * time.Millisecond)
	s.MarkDirty(src)
	time.Sleep(80 * time.Millisecond)

	staging.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestMarkDirty_FlushCarriesSourceDate(t *testing.T) {
	s, _, staging := newSyncer(t, 20*time.Millisecond)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)

	// The session's logical day, not the wall clock at flush time.
	src := fakeSource{date: "2024-03-09", ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	s.MarkDirty(src)
	time.Sleep(80 * time.Millisecond)

	staging.AssertCalled(t, "Upsert", mock.Anything, "learner-1", mock.MatchedBy(func(rec models.DailyProgressRecord) bool {
		return rec.Date == "2024-03-09"
	}))
}

func TestFlushStagingNow_CarriesSourceDate(t *testing.T) {
	s, _, staging := newSyncer(t, time.Second)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)

	src := fakeSource{date: "2024-03-09", ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	require.NoError(t, s.FlushStagingNow(src))

	staging.AssertCalled(t, "Upsert", mock.Anything, "learner-1", mock.MatchedBy(func(rec models.DailyProgressRecord) bool {
		return rec.Date == "2024-03-09"
	}))
}

func TestFinalize_NotClobberedByPendingDebounce(t *testing.T) {
	s, profiles, staging := newSyncer(t, 30*time.Millisecond)
	profiles.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)
	staging.On("Delete", mock.Anything, "learner-1", "2024-03-09").Return(nil)

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	s.MarkDirty(src)

	err := s.Finalize(models.ProfileRecord{DailyCompletedToday: true}, "2024-03-09")
	require.NoError(t, err)

	// The debounced staging write must not fire after the authoritative
	// finalize.
	time.Sleep(100 * time.Millisecond)
	staging.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	profiles.AssertNumberOfCalls(t, "Upsert", 1)
	staging.AssertNumberOfCalls(t, "Delete", 1)
}

func TestFinalize_StoreFailureSurfaced(t *testing.T) {
	s, profiles, _ := newSyncer(t, time.Second)
	profiles.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(errors.New("boom"))

	err := s.Finalize(models.ProfileRecord{}, "2024-03-09")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStore))
	assert.Error(t, s.LastWriteError())
}

func TestLastWriteError_SetAndCleared(t *testing.T) {
	s, _, staging := newSyncer(t, time.Second)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(errors.New("network down")).Once()
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil).Once()

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{}}

	require.Error(t, s.FlushStagingNow(src), "first flush fails")
	assert.Error(t, s.LastWriteError())

	require.NoError(t, s.FlushStagingNow(src), "second flush recovers")
	assert.NoError(t, s.LastWriteError(), "a later success clears the warning")
}

func TestSignOut_WritesStagingThenCanonical(t *testing.T) {
	s, profiles, staging := newSyncer(t, time.Second)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)
	profiles.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)
	staging.On("Delete", mock.Anything, "learner-1", "2024-03-09").Return(nil)

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	err := s.SignOut(src, models.ProfileRecord{}, "2024-03-09")

	require.NoError(t, err)
	staging.AssertNumberOfCalls(t, "Upsert", 1)
	profiles.AssertNumberOfCalls(t, "Upsert", 1)
	staging.AssertNumberOfCalls(t, "Delete", 1)
}

func TestSignOut_CanonicalWrittenEvenIfStagingFails(t *testing.T) {
	s, profiles, staging := newSyncer(t, time.Second)
	staging.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(errors.New("flaky"))
	profiles.On("Upsert", mock.Anything, "learner-1", mock.Anything).Return(nil)
	staging.On("Delete", mock.Anything, "learner-1", "2024-03-09").Return(nil)

	src := fakeSource{ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	err := s.SignOut(src, models.ProfileRecord{}, "2024-03-09")

	require.NoError(t, err, "staging safety net failure does not block the canonical write")
	profiles.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestWritesAfterClose_SettleWithError(t *testing.T) {
	profiles := new(mocks.MockProfileRepository)
	staging := new(mocks.MockStagingRepository)
	s := syncer.New(context.Background(), profiles, staging, "learner-1", time.Second)
	s.Close()

	// A write racing a concurrent sign-out must settle, not block on the
	// stopped worker.
	errCh := make(chan error, 1)
	go func() { errCh <- s.Finalize(models.ProfileRecord{}, "2024-03-09") }()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStore))
	case <-time.After(2 * time.Second):
		t.Fatal("finalize blocked after close")
	}

	src := fakeSource{date: "2024-03-09", ids: []string{"a"}, prog: map[string]models.CompressedStat{}}
	err := s.FlushStagingNow(src)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStore))
	profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoad_NoRecords(t *testing.T) {
	s, profiles, staging := newSyncer(t, time.Second)
	profiles.On("Get", mock.Anything, "learner-1").Return(nil, nil)
	staging.On("GetForDate", mock.Anything, "learner-1", "2024-03-09").Return(nil, nil)
	staging.On("GetLatest", mock.Anything, "learner-1").Return(nil, nil)

	profile, staged, err := s.Load(context.Background(), "2024-03-09")

	require.NoError(t, err)
	assert.Nil(t, profile, "no such learner yet is not an error")
	assert.Nil(t, staged)
}

func TestLoad_TodayStagingReturned(t *testing.T) {
	s, profiles, staging := newSyncer(t, time.Second)
	profiles.On("Get", mock.Anything, "learner-1").Return(&models.ProfileRecord{}, nil)
	staging.On("GetForDate", mock.Anything, "learner-1", "2024-03-09").Return(&models.DailyProgressRecord{Date: "2024-03-09"}, nil)

	_, staged, err := s.Load(context.Background(), "2024-03-09")

	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, "2024-03-09", staged.Date)
	staging.AssertNotCalled(t, "GetLatest", mock.Anything, mock.Anything)
}

func TestLoad_StaleStagingDiscarded(t *testing.T) {
	s, profiles, staging := newSyncer(t, time.Second)
	profiles.On("Get", mock.Anything, "learner-1").Return(&models.ProfileRecord{}, nil)
	staging.On("GetForDate", mock.Anything, "learner-1", "2024-03-09").Return(nil, nil)
	staging.On("GetLatest", mock.Anything, "learner-1").Return(&models.DailyProgressRecord{Date: "2024-03-08"}, nil)
	staging.On("Delete", mock.Anything, "learner-1", "2024-03-08").Return(nil)

	_, staged, err := s.Load(context.Background(), "2024-03-09")

	require.NoError(t, err)
	assert.Nil(t, staged, "prior-day staging is discarded, not merged")
	staging.AssertCalled(t, "Delete", mock.Anything, "learner-1", "2024-03-08")
}

func TestLoad_TransientProfileFailure(t *testing.T) {
	s, profiles, _ := newSyncer(t, time.Second)
	profiles.On("Get", mock.Anything, "learner-1").Return(nil, errors.New("timeout"))

	_, _, err := s.Load(context.Background(), "2024-03-09")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStore))
}
