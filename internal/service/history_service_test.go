package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tusai/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func historyFixture() []domain.HistoryRecord {
	now := time.Now()
	return []domain.HistoryRecord{
		{ID: "r3", OwnerID: "user-1", Mode: domain.ModeMixed, Subjects: []string{"anatomy"}, Score: 90, CreatedAt: now},
		{ID: "r2", OwnerID: "user-1", Mode: domain.ModePastExam, Subjects: []string{"pharmacology"}, Score: 60, CreatedAt: now.Add(-time.Hour)},
		{ID: "r1", OwnerID: "user-1", Mode: domain.ModeMixed, Subjects: []string{"anatomy", "physiology"}, Score: 70, CreatedAt: now.Add(-2 * time.Hour)},
	}
}

func newHistoryServiceForTest() (HistoryService, *MockHistoryRepository, *MockProfileRepository, *MockCache) {
	historyRepo := new(MockHistoryRepository)
	profileRepo := new(MockProfileRepository)
	cacheMock := new(MockCache)
	svc := NewHistoryService(historyRepo, profileRepo, cacheMock, time.Minute)
	return svc, historyRepo, profileRepo, cacheMock
}

func TestHistoryService_ListHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("NoFilters", func(t *testing.T) {
		svc, historyRepo, _, _ := newHistoryServiceForTest()
		historyRepo.On("GetRecordsByOwner", ctx, "user-1").Return(historyFixture(), nil).Once()

		resp, err := svc.ListHistory(ctx, "user-1", domain.HistoryFilters{})
		require.NoError(t, err)
		require.Len(t, resp.Items, 3)
		assert.Equal(t, "r3", resp.Items[0].ID) // newest first
	})

	t.Run("SubjectAndModeFilter", func(t *testing.T) {
		svc, historyRepo, _, _ := newHistoryServiceForTest()
		historyRepo.On("GetRecordsByOwner", ctx, "user-1").Return(historyFixture(), nil).Once()

		resp, err := svc.ListHistory(ctx, "user-1", domain.HistoryFilters{Subject: "anatomy", Mode: domain.ModeMixed})
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "r3", resp.Items[0].ID)
		assert.Equal(t, "r1", resp.Items[1].ID)
	})

	t.Run("Limit", func(t *testing.T) {
		svc, historyRepo, _, _ := newHistoryServiceForTest()
		historyRepo.On("GetRecordsByOwner", ctx, "user-1").Return(historyFixture(), nil).Once()

		resp, err := svc.ListHistory(ctx, "user-1", domain.HistoryFilters{Limit: 1})
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "r3", resp.Items[0].ID)
	})
}

func TestHistoryService_GetRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerScoped", func(t *testing.T) {
		svc, historyRepo, _, _ := newHistoryServiceForTest()
		historyRepo.On("GetRecordByID", ctx, "r1").
			Return(&domain.HistoryRecord{ID: "r1", OwnerID: "user-1"}, nil).Twice()

		record, err := svc.GetRecord(ctx, "user-1", "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", record.ID)

		// another owner's record reads as not found, never forbidden
		_, err = svc.GetRecord(ctx, "intruder", "r1")
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeNotFound, domainErr.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		svc, historyRepo, _, _ := newHistoryServiceForTest()
		historyRepo.On("GetRecordByID", ctx, "nope").Return(nil, nil).Once()

		_, err := svc.GetRecord(ctx, "user-1", "nope")
		assert.Error(t, err)
	})
}

func TestHistoryService_ComputeLeaderboard(t *testing.T) {
	ctx := context.Background()
	entries := []domain.LeaderboardEntry{
		{UserID: "user-a", AverageScore: 88.5, QuizCount: 4},
		{UserID: "user-b", AverageScore: 72.0, QuizCount: 2},
		{UserID: "user-c", AverageScore: 72.0, QuizCount: 9},
	}

	t.Run("CacheMissComputesAndCaches", func(t *testing.T) {
		svc, historyRepo, profileRepo, cacheMock := newHistoryServiceForTest()

		cacheMock.On("Get", ctx, mock.Anything).Return("", domain.ErrCacheMiss).Once()
		historyRepo.On("AggregateScores", ctx, "anatomy").Return(entries, nil).Once()
		cacheMock.On("Set", ctx, mock.Anything, mock.Anything, time.Minute).Return(nil).Once()
		profileRepo.On("GetProfileByID", ctx, mock.Anything).Return(&domain.Profile{DisplayName: "someone"}, nil)

		resp, err := svc.ComputeLeaderboard(ctx, "user-b", "anatomy")
		require.NoError(t, err)
		require.Len(t, resp.Entries, 3)
		assert.Equal(t, 1, resp.Entries[0].Rank)
		assert.Equal(t, "user-a", resp.Entries[0].UserID)
		require.NotNil(t, resp.Rank)
		assert.Equal(t, 2, *resp.Rank)
		assert.True(t, resp.Ranked)
		assert.Equal(t, 72.0, resp.AverageScore)
		historyRepo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("CacheHitSkipsRepository", func(t *testing.T) {
		svc, historyRepo, profileRepo, cacheMock := newHistoryServiceForTest()

		payload, err := json.Marshal(entries)
		require.NoError(t, err)
		cacheMock.On("Get", ctx, mock.Anything).Return(string(payload), nil).Once()
		profileRepo.On("GetProfileByID", ctx, mock.Anything).Return(nil, nil)

		resp, err := svc.ComputeLeaderboard(ctx, "user-a", "")
		require.NoError(t, err)
		require.Len(t, resp.Entries, 3)
		historyRepo.AssertNotCalled(t, "AggregateScores", mock.Anything, mock.Anything)
	})

	t.Run("UnrankedUser", func(t *testing.T) {
		svc, historyRepo, profileRepo, cacheMock := newHistoryServiceForTest()

		cacheMock.On("Get", ctx, mock.Anything).Return("", domain.ErrCacheMiss).Once()
		historyRepo.On("AggregateScores", ctx, "").Return(entries, nil).Once()
		cacheMock.On("Set", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		profileRepo.On("GetProfileByID", ctx, mock.Anything).Return(nil, nil)

		resp, err := svc.ComputeLeaderboard(ctx, "user-never-played", "")
		require.NoError(t, err)
		assert.Nil(t, resp.Rank)
		assert.False(t, resp.Ranked)
		assert.Zero(t, resp.AverageScore)
	})

	t.Run("TieBreaksByAscendingUserID", func(t *testing.T) {
		// ordering comes from the repository query; the service preserves it
		svc, historyRepo, profileRepo, cacheMock := newHistoryServiceForTest()

		cacheMock.On("Get", ctx, mock.Anything).Return("", domain.ErrCacheMiss).Once()
		historyRepo.On("AggregateScores", ctx, "").Return(entries, nil).Once()
		cacheMock.On("Set", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		profileRepo.On("GetProfileByID", ctx, mock.Anything).Return(nil, nil)

		resp, err := svc.ComputeLeaderboard(ctx, "user-c", "")
		require.NoError(t, err)
		assert.Equal(t, "user-b", resp.Entries[1].UserID)
		assert.Equal(t, "user-c", resp.Entries[2].UserID)
		require.NotNil(t, resp.Rank)
		assert.Equal(t, 3, *resp.Rank)
	})
}
