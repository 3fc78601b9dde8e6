package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tusai/internal/cache"
	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// leaderboardTopN bounds how many entries a leaderboard response carries.
// The caller's own rank is computed over the full aggregate, so a user
// outside the top N still gets a correct rank.
const leaderboardTopN = 20

// HistoryService reads past attempts and computes the leaderboard.
type HistoryService interface {
	ListHistory(ctx context.Context, ownerID string, filters domain.HistoryFilters) (*dto.HistoryListResponse, error)
	GetRecord(ctx context.Context, ownerID, recordID string) (*domain.HistoryRecord, error)
	ComputeLeaderboard(ctx context.Context, userID string, subject string) (*dto.LeaderboardResponse, error)
}

type historyServiceImpl struct {
	historyRepo domain.HistoryRepository
	profileRepo domain.ProfileRepository
	cache       domain.Cache
	cacheTTL    time.Duration
	group       singleflight.Group
}

func NewHistoryService(historyRepo domain.HistoryRepository, profileRepo domain.ProfileRepository, cacheClient domain.Cache, cacheTTL time.Duration) HistoryService {
	return &historyServiceImpl{
		historyRepo: historyRepo,
		profileRepo: profileRepo,
		cache:       cacheClient,
		cacheTTL:    cacheTTL,
	}
}

// ListHistory returns the owner's attempts newest first, narrowed by the
// filters. Filtering is a post-hoc predicate over the owner's rows; the
// limit applies after filtering.
func (s *historyServiceImpl) ListHistory(ctx context.Context, ownerID string, filters domain.HistoryFilters) (*dto.HistoryListResponse, error) {
	records, err := s.historyRepo.GetRecordsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	items := make([]dto.HistoryItemResponse, 0, len(records))
	for i := range records {
		if !filters.Matches(&records[i]) {
			continue
		}
		items = append(items, dto.HistoryItemResponse{
			ID:             records[i].ID,
			Mode:           string(records[i].Mode),
			Subjects:       records[i].Subjects,
			TotalCount:     records[i].TotalCount,
			CorrectCount:   records[i].CorrectCount,
			Score:          records[i].Score,
			ElapsedSeconds: records[i].ElapsedSeconds,
			CreatedAt:      records[i].CreatedAt,
		})
		if filters.Limit > 0 && len(items) >= filters.Limit {
			break
		}
	}

	return &dto.HistoryListResponse{Items: items, Total: len(items)}, nil
}

// GetRecord loads one attempt, owner-scoped. A record owned by someone else
// is reported as not found, the same as a missing one.
func (s *historyServiceImpl) GetRecord(ctx context.Context, ownerID, recordID string) (*domain.HistoryRecord, error) {
	record, err := s.historyRepo.GetRecordByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	if record == nil || record.OwnerID != ownerID {
		return nil, domain.NewNotFoundError(fmt.Sprintf("history record %s not found", recordID))
	}
	return record, nil
}

// ComputeLeaderboard returns the cross-user aggregate plus the caller's own
// position. The aggregate is served from a Redis snapshot when fresh;
// recomputes collapse through singleflight so a cold key triggers one query
// no matter how many requests race on it.
func (s *historyServiceImpl) ComputeLeaderboard(ctx context.Context, userID string, subject string) (*dto.LeaderboardResponse, error) {
	entries, err := s.loadEntries(ctx, subject)
	if err != nil {
		return nil, err
	}

	response := &dto.LeaderboardResponse{
		Subject: subject,
		Entries: make([]dto.LeaderboardEntryResponse, 0, leaderboardTopN),
	}

	for i, entry := range entries {
		rank := i + 1
		if entry.UserID == userID {
			r := rank
			response.Rank = &r
			response.AverageScore = entry.AverageScore
			response.Ranked = true
		}
		if rank <= leaderboardTopN {
			response.Entries = append(response.Entries, dto.LeaderboardEntryResponse{
				Rank:         rank,
				UserID:       entry.UserID,
				DisplayName:  s.displayName(ctx, entry.UserID),
				AverageScore: entry.AverageScore,
				QuizCount:    entry.QuizCount,
			})
		}
	}

	// A user with no matching attempts stays unranked: Rank is nil and
	// clients must render "not ranked yet" rather than a fabricated rank.
	return response, nil
}

func (s *historyServiceImpl) loadEntries(ctx context.Context, subject string) ([]domain.LeaderboardEntry, error) {
	cacheKey := cache.GenerateCacheKey("history", "leaderboard", subjectOrAll(subject))

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var entries []domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
		logger.Get().Warn("Failed to unmarshal cached leaderboard, recomputing", zap.String("key", cacheKey))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Leaderboard cache read failed, recomputing", zap.Error(err))
	}

	result, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		entries, err := s.historyRepo.AggregateScores(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
		}

		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
				logger.Get().Warn("Failed to cache leaderboard snapshot", zap.Error(err), zap.String("key", cacheKey))
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (s *historyServiceImpl) displayName(ctx context.Context, userID string) string {
	profile, err := s.profileRepo.GetProfileByID(ctx, userID)
	if err != nil || profile == nil {
		return ""
	}
	return profile.DisplayName
}

func subjectOrAll(subject string) string {
	if subject == "" {
		return "all"
	}
	return subject
}
