package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "colstd/internal/db"
	"colstd/internal/domain"
)

func setupRunRepo(t *testing.T) *RunRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewRunRepo(writeDB, readDB)
}

func makeRun(id, status string, created time.Time) *domain.RunRecord {
	return &domain.RunRecord{
		ID:             id,
		FilePath:       "subs.csv",
		Model:          "llama-3.3-70b-versatile",
		Status:         status,
		CleaningCode:   "rename_map = {}",
		ConfidentCount: 2,
		AmbiguousCount: 1,
		UnknownCount:   1,
		Mappings: domain.MappingsOf(domain.RenameMap{
			"dob":    "BirthDate",
			"x_flg":  "ambiguous_x_flg",
			"zz":     "unknown_zz",
			"rev_l3": "RevenueLast30d",
		}),
		AmbiguousFields: []domain.AmbiguousField{{
			OriginalColumn: "x_flg",
			Candidates:     []string{"RoamingFlag", "DataPlanFlag"},
			Reason:         "unclear prefix",
			SampleValues:   "0, 1",
		}},
		Diagnostics: []string{`column "extra" has no mapping`},
		DurationMs:  1234,
		CreatedAt:   created,
	}
}

func TestRunRepo_InsertAndGet(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, makeRun("run-1", domain.RunStatusDegraded, created)))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "subs.csv", got.FilePath)
	assert.Equal(t, domain.RunStatusDegraded, got.Status)
	assert.Equal(t, 2, got.ConfidentCount)
	assert.Equal(t, int64(1234), got.DurationMs)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, []string{`column "extra" has no mapping`}, got.Diagnostics)

	require.Len(t, got.Mappings, 4)
	assert.Equal(t, domain.ColumnMapping{RawColumn: "dob", NewColumn: "BirthDate", Tier: domain.TierConfident}, got.Mappings[0])
	assert.Equal(t, domain.TierAmbiguous, got.Mappings[2].Tier)
	assert.Equal(t, domain.TierUnknown, got.Mappings[3].Tier)

	require.Len(t, got.AmbiguousFields, 1)
	assert.Equal(t, []string{"RoamingFlag", "DataPlanFlag"}, got.AmbiguousFields[0].Candidates)
}

func TestRunRepo_InsertError(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	msg := "model call (groq): status 401"

	run := &domain.RunRecord{Model: "m", Status: domain.RunStatusError, ErrorMessage: &msg}
	require.NoError(t, repo.Insert(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)
	assert.Empty(t, got.Mappings)
	assert.Empty(t, got.Diagnostics)
}

func TestRunRepo_DuplicateID(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, makeRun("dup", domain.RunStatusSuccess, time.Now())))
	err := repo.Insert(ctx, makeRun("dup", domain.RunStatusSuccess, time.Now()))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, `run "dup" already exists`, conflict.Message)

	got, err := repo.Get(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, got.Mappings, 4, "failed insert must not touch the stored run")
}

func TestRunRepo_InsertRollsBackOnChildFailure(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	run := makeRun("bad-tier", domain.RunStatusSuccess, time.Now())
	run.Mappings = append(run.Mappings, domain.ColumnMapping{RawColumn: "q", NewColumn: "Q", Tier: "certain"})

	err := repo.Insert(ctx, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `insert mapping "q"`)

	_, err = repo.Get(ctx, "bad-tier")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf, "run row must be rolled back")
}

func TestRunRepo_GetNotFound(t *testing.T) {
	repo := setupRunRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRunRepo_List(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		status := domain.RunStatusSuccess
		if i%2 == 1 {
			status = domain.RunStatusError
		}
		require.NoError(t, repo.Insert(ctx, makeRun(fmt.Sprintf("run-%d", i), status, base.Add(time.Duration(i)*time.Hour))))
	}

	t.Run("all_newest_first", func(t *testing.T) {
		runs, total, err := repo.List(ctx, domain.RunFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, runs, 5)
		assert.Equal(t, "run-4", runs[0].ID)
		assert.Equal(t, "run-0", runs[4].ID)
		assert.Empty(t, runs[0].Mappings)
	})

	t.Run("status_filter", func(t *testing.T) {
		status := domain.RunStatusError
		runs, total, err := repo.List(ctx, domain.RunFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, r := range runs {
			assert.Equal(t, domain.RunStatusError, r.Status)
		}
	})

	t.Run("since_filter", func(t *testing.T) {
		since := base.Add(3 * time.Hour)
		_, total, err := repo.List(ctx, domain.RunFilter{Since: &since})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("pagination", func(t *testing.T) {
		runs, total, err := repo.List(ctx, domain.RunFilter{Page: domain.PageRequest{MaxResults: 2, PageToken: domain.EncodePageToken(2)}})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, "run-1", runs[1].ID)
	})

	t.Run("empty", func(t *testing.T) {
		status := "NOPE"
		runs, total, err := repo.List(ctx, domain.RunFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.NotNil(t, runs)
		assert.Empty(t, runs)
	})
}
