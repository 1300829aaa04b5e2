package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair(jobID string, n int) *qagen.QAPair {
	return &qagen.QAPair{
		JobID:        jobID,
		Question:     fmt.Sprintf("What does feature %d do?", n),
		Answer:       fmt.Sprintf("Feature %d does a specific useful thing.", n),
		Confidence:   0.9,
		Category:     "features",
		SourceURL:    "https://example.com/docs",
		SegmentIndex: n,
	}
}

func TestQAPairService_CreateQAPairs(t *testing.T) {
	t.Parallel()

	t.Run("persists batch with generated IDs", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		pairs := []*qagen.QAPair{testPair(job.ID, 0), testPair(job.ID, 1), testPair(job.ID, 2)}
		require.NoError(t, svc.CreateQAPairs(ctx, pairs))

		for _, p := range pairs {
			assert.NotEmpty(t, p.ID, "ID should be generated")
		}

		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &job.ID})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		pairs := make([]*qagen.QAPair, 10)
		for i := range pairs {
			pairs[i] = testPair(job.ID, i)
		}
		require.NoError(t, svc.CreateQAPairs(ctx, pairs))

		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &job.ID})
		require.NoError(t, err)
		require.Len(t, found, 10)
		for i, p := range found {
			assert.Equal(t, i, p.SegmentIndex)
		}
	})

	t.Run("rejects invalid pairs without persisting any", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		pairs := []*qagen.QAPair{
			testPair(job.ID, 0),
			{JobID: job.ID, Question: "Too short", Answer: "Also far too short here.", Confidence: 0.9},
		}
		err := svc.CreateQAPairs(ctx, pairs)
		require.Error(t, err)
		assert.Equal(t, qagen.EINVALID, qagen.ErrorCode(err))

		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &job.ID})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)

		require.NoError(t, svc.CreateQAPairs(context.Background(), nil))
	})
}

func TestQAPairService_FindQAPairs(t *testing.T) {
	t.Parallel()

	t.Run("filters by source URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		a := testPair(job.ID, 0)
		a.SourceURL = "https://example.com/a"
		b := testPair(job.ID, 1)
		b.SourceURL = "https://example.com/b"
		require.NoError(t, svc.CreateQAPairs(ctx, []*qagen.QAPair{a, b}))

		url := "https://example.com/b"
		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{SourceURL: &url})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, b.Question, found[0].Question)
	})

	t.Run("applies offset and limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		pairs := make([]*qagen.QAPair, 5)
		for i := range pairs {
			pairs[i] = testPair(job.ID, i)
		}
		require.NoError(t, svc.CreateQAPairs(ctx, pairs))

		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &job.ID, Offset: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 1, found[0].SegmentIndex)
		assert.Equal(t, 2, found[1].SegmentIndex)
	})

	t.Run("applies offset without limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQAPairService(db)
		ctx := context.Background()
		job := createTestJob(t, db)

		pairs := make([]*qagen.QAPair, 5)
		for i := range pairs {
			pairs[i] = testPair(job.ID, i)
		}
		require.NoError(t, svc.CreateQAPairs(ctx, pairs))

		found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &job.ID, Offset: 3})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 3, found[0].SegmentIndex)
		assert.Equal(t, 4, found[1].SegmentIndex)
	})
}

func TestQAPairService_DeleteQAPairsByJob(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := sqlite.NewQAPairService(db)
	ctx := context.Background()

	keep := createTestJob(t, db)
	drop := createTestJob(t, db)
	require.NoError(t, svc.CreateQAPairs(ctx, []*qagen.QAPair{testPair(keep.ID, 0)}))
	require.NoError(t, svc.CreateQAPairs(ctx, []*qagen.QAPair{testPair(drop.ID, 0), testPair(drop.ID, 1)}))

	require.NoError(t, svc.DeleteQAPairsByJob(ctx, drop.ID))

	found, err := svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &drop.ID})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = svc.FindQAPairs(ctx, qagen.QAPairFilter{JobID: &keep.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
