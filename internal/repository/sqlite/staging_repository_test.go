package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/repository"
	"github.com/lauri/vocaflow/internal/repository/sqlite"
	"github.com/lauri/vocaflow/internal/testutil"
)

type StagingRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.StagingRepository
}

func (s *StagingRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewStagingRepository(s.db)
}

func (s *StagingRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *StagingRepositorySuite) TestUpsertAndGetForDate() {
	ctx := context.Background()

	rec := models.DailyProgressRecord{
		Date:    "2024-03-09",
		ItemIDs: []string{"w1", "w2", "w3"},
		Progress: map[string]models.CompressedStat{
			"w1": {A: 3, C: 2, H: 1, T: 1709980000, N: 1710498400, IV: 6},
		},
	}
	s.Require().NoError(s.repo.Upsert(ctx, "learner-1", rec))

	got, err := s.repo.GetForDate(ctx, "learner-1", "2024-03-09")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(rec.Date, got.Date)
	s.Equal(rec.ItemIDs, got.ItemIDs)
	s.Equal(rec.Progress, got.Progress)
}

func (s *StagingRepositorySuite) TestUpsertReplacesWholeRecord() {
	ctx := context.Background()

	first := models.DailyProgressRecord{
		Date:    "2024-03-09",
		ItemIDs: []string{"w1", "w2"},
		Progress: map[string]models.CompressedStat{
			"w1": {A: 1, C: 1, IV: 1},
			"w2": {A: 1, C: 0, IV: 1},
		},
	}
	s.Require().NoError(s.repo.Upsert(ctx, "learner-1", first))

	second := models.DailyProgressRecord{
		Date:     "2024-03-09",
		ItemIDs:  []string{"w3"},
		Progress: map[string]models.CompressedStat{"w3": {A: 1, C: 1, IV: 1}},
	}
	s.Require().NoError(s.repo.Upsert(ctx, "learner-1", second))

	got, err := s.repo.GetForDate(ctx, "learner-1", "2024-03-09")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal([]string{"w3"}, got.ItemIDs, "upsert replaces, never merges")
	s.Len(got.Progress, 1)
}

func (s *StagingRepositorySuite) TestGetLatestPicksNewestDate() {
	ctx := context.Background()

	for _, date := range []string{"2024-03-07", "2024-03-09", "2024-03-08"} {
		s.Require().NoError(s.repo.Upsert(ctx, "learner-1", models.DailyProgressRecord{
			Date:    date,
			ItemIDs: []string{"w-" + date},
		}))
	}

	got, err := s.repo.GetLatest(ctx, "learner-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("2024-03-09", got.Date)
}

func (s *StagingRepositorySuite) TestGetMissingIsNilNil() {
	ctx := context.Background()

	got, err := s.repo.GetForDate(ctx, "learner-1", "2024-03-09")
	s.NoError(err)
	s.Nil(got)

	got, err = s.repo.GetLatest(ctx, "nobody")
	s.NoError(err)
	s.Nil(got)
}

func (s *StagingRepositorySuite) TestRecordsAreScopedPerUser() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Upsert(ctx, "learner-1", models.DailyProgressRecord{Date: "2024-03-09", ItemIDs: []string{"w1"}}))
	s.Require().NoError(s.repo.Upsert(ctx, "learner-2", models.DailyProgressRecord{Date: "2024-03-09", ItemIDs: []string{"w9"}}))

	got, err := s.repo.GetLatest(ctx, "learner-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal([]string{"w1"}, got.ItemIDs)
}

func (s *StagingRepositorySuite) TestDelete() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Upsert(ctx, "learner-1", models.DailyProgressRecord{Date: "2024-03-09"}))
	s.Require().NoError(s.repo.Delete(ctx, "learner-1", "2024-03-09"))

	got, err := s.repo.GetForDate(ctx, "learner-1", "2024-03-09")
	s.NoError(err)
	s.Nil(got)

	// Deleting an absent record is not an error.
	s.NoError(s.repo.Delete(ctx, "learner-1", "2024-03-09"))
}

func (s *StagingRepositorySuite) TestDeleteOlderThan() {
	ctx := context.Background()

	for _, date := range []string{"2024-03-01", "2024-03-05", "2024-03-09"} {
		s.Require().NoError(s.repo.Upsert(ctx, "learner-1", models.DailyProgressRecord{Date: date}))
	}
	s.Require().NoError(s.repo.Upsert(ctx, "learner-2", models.DailyProgressRecord{Date: "2024-03-02"}))

	n, err := s.repo.DeleteOlderThan(ctx, "2024-03-05")
	s.Require().NoError(err)
	s.Equal(int64(2), n, "sweep crosses users")

	got, err := s.repo.GetLatest(ctx, "learner-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("2024-03-09", got.Date)

	got, err = s.repo.GetForDate(ctx, "learner-1", "2024-03-05")
	s.Require().NoError(err)
	s.NotNil(got, "records on the cutoff date survive")
}

func TestStagingRepositorySuite(t *testing.T) {
	suite.Run(t, new(StagingRepositorySuite))
}
