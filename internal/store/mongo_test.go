package store

import (
	"context"
	"testing"
	"time"

	"resumescan/internal/analysis"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockStore(mt *mtest.T) *Store {
	return New(mt.DB, 3)
}

func userDoc(email, tier string, count int) bson.D {
	return bson.D{
		{Key: "email", Value: email},
		{Key: "subscriptionTier", Value: tier},
		{Key: "resumeCount", Value: count},
	}
}

func TestCheckQuota(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("free user under limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			userDoc("jane@example.com", "free", 2)))

		user, err := newMockStore(mt).CheckQuota(context.Background(), "jane@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, 2, user.ResumeCount)
	})

	mt.Run("free user at limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			userDoc("jane@example.com", "free", 3)))

		user, err := newMockStore(mt).CheckQuota(context.Background(), "jane@example.com")
		require.Error(mt, err)
		assert.True(mt, resumescanErrors.HasCode(err, resumescanErrors.ErrCodeQuotaExceeded))
		assert.Equal(mt, 3, user.ResumeCount)
	})

	mt.Run("paid user has no limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			userDoc("pat@example.com", "lifetime", 40)))

		user, err := newMockStore(mt).CheckQuota(context.Background(), "pat@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, types.TierLifetime, user.Tier())
	})

	mt.Run("unknown user starts free", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		user, err := newMockStore(mt).CheckQuota(context.Background(), "  New@Example.com ")
		require.NoError(mt, err)
		assert.Equal(mt, "new@example.com", user.Email)
		assert.Equal(mt, types.TierFree, user.Tier())
		assert.Equal(mt, 0, user.ResumeCount)
	})

	mt.Run("lookup failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
		}))

		_, err := newMockStore(mt).CheckQuota(context.Background(), "jane@example.com")
		assert.True(mt, resumescanErrors.HasCode(err, resumescanErrors.ErrCodeStoreFailed))
	})
}

func TestSaveAnalysis(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("with user increments count", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		doc := NewAnalysisDocument("cv.txt", 120, "Jane@Example.com", analysis.Record{Score: 70}, time.Now())
		require.NoError(mt, newMockStore(mt).SaveAnalysis(context.Background(), doc))
		assert.Equal(mt, "jane@example.com", doc.UserEmail)

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 2)
		assert.Equal(mt, "insert", started[0].CommandName)
		assert.Equal(mt, "update", started[1].CommandName)
	})

	mt.Run("anonymous skips user update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		doc := NewAnalysisDocument("cv.txt", 120, "", analysis.Record{Score: 70}, time.Now())
		require.NoError(mt, newMockStore(mt).SaveAnalysis(context.Background(), doc))
		assert.Len(mt, mt.GetAllStartedEvents(), 1)
	})

	mt.Run("duplicate id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		doc := NewAnalysisDocument("cv.txt", 120, "", analysis.Record{}, time.Now())
		err := newMockStore(mt).SaveAnalysis(context.Background(), doc)
		assert.True(mt, resumescanErrors.HasCode(err, resumescanErrors.ErrCodeStoreFailed))
	})
}

func TestHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("newest first summaries", func(mt *mtest.T) {
		uploaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.resumes", mtest.FirstBatch,
			bson.D{
				{Key: "id", Value: "a1"},
				{Key: "originalName", Value: "jane_cv.txt"},
				{Key: "uploadDate", Value: primitive.NewDateTimeFromTime(uploaded)},
				{Key: "analysisResult", Value: bson.D{
					{Key: "score", Value: 82},
					{Key: "atsScore", Value: bson.D{{Key: "overall", Value: 77}}},
				}},
			},
			bson.D{
				{Key: "id", Value: "a0"},
				{Key: "originalName", Value: "old.txt"},
				{Key: "uploadDate", Value: primitive.NewDateTimeFromTime(uploaded.Add(-time.Hour))},
				{Key: "analysisResult", Value: bson.D{{Key: "score", Value: 60}}},
			},
		))

		history, err := newMockStore(mt).History(context.Background(), "jane@example.com", 0)
		require.NoError(mt, err)
		require.Len(mt, history, 2)
		assert.Equal(mt, types.AnalysisSummary{
			ID:           "a1",
			OriginalName: "jane_cv.txt",
			UploadDate:   "2025-03-01T12:00:00Z",
			Score:        82,
			ATSScore:     77,
		}, history[0])
		assert.Equal(mt, "a0", history[1].ID)
	})

	mt.Run("empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.resumes", mtest.FirstBatch))

		history, err := newMockStore(mt).History(context.Background(), "nobody@example.com", 5)
		require.NoError(mt, err)
		assert.Empty(mt, history)
	})
}

func TestGetAnalysis(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.resumes", mtest.FirstBatch,
			bson.D{
				{Key: "id", Value: "a1"},
				{Key: "fileName", Value: "a1.txt"},
				{Key: "analysisResult", Value: bson.D{
					{Key: "score", Value: 82},
					{Key: "suggestions", Value: bson.A{
						bson.D{{Key: "type", Value: "critical"}, {Key: "title", Value: "Add metrics"}},
					}},
					{Key: "keywords", Value: bson.D{{Key: "found", Value: bson.A{"Go"}}}},
				}},
			},
		))

		doc, err := newMockStore(mt).GetAnalysis(context.Background(), "a1")
		require.NoError(mt, err)
		out := doc.Output()
		assert.Equal(mt, "a1", out.ID)
		assert.Equal(mt, 82, out.Analysis.Score)
		require.Len(mt, out.Analysis.Suggestions, 1)
		assert.Equal(mt, "critical", out.Analysis.Suggestions[0].Type)
		assert.Nil(mt, out.Analysis.Suggestions[0].Example)
		assert.Equal(mt, []string{"Go"}, out.Analysis.Keywords.Found)
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.resumes", mtest.FirstBatch))

		_, err := newMockStore(mt).GetAnalysis(context.Background(), "missing")
		assert.True(mt, resumescanErrors.HasCode(err, resumescanErrors.ErrCodeNotFound))
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates both collections' indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		require.NoError(mt, newMockStore(mt).EnsureIndexes(context.Background()))

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 2)
		assert.Equal(mt, "createIndexes", started[0].CommandName)
		assert.Equal(mt, "createIndexes", started[1].CommandName)
	})
}
