package service

import (
	"context"
	"time"

	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"go.uber.org/zap"
)

// Периоды для популярных историй.
const (
	TimeframeAll   = "all"
	TimeframeToday = "today"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// popularSince возвращает нижнюю границу created_at для периода.
// "today" - с начала текущих суток UTC, "week" - последние 7 дней, "month" - с первого числа месяца.
func popularSince(timeframe string, now time.Time) (time.Time, error) {
	now = now.UTC()
	switch timeframe {
	case "", TimeframeAll:
		return time.Time{}, nil
	case TimeframeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case TimeframeWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case TimeframeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, models.NewValidationError("timeframe", "Timeframe must be one of all, today, week, month")
	}
}

// ListFeed возвращает корни историй, новые первыми.
func (s *storyServiceImpl) ListFeed(ctx context.Context, cursor string, limit int) ([]*models.Story, string, error) {
	limit = utils.SanitizeLimit(limit)
	stories, next, err := s.storyRepo.ListRoots(ctx, s.db, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list feed", zap.String("cursor", cursor), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return stories, next, nil
}

func (s *storyServiceImpl) ListPopular(ctx context.Context, voteType models.VoteType, timeframe string, cursor string, limit int) ([]*models.Story, string, error) {
	if voteType == "" {
		voteType = models.VoteLike
	}
	if !voteType.IsValid() {
		return nil, "", models.NewValidationError("vote_type", "Vote type must be like or dislike")
	}
	since, err := popularSince(timeframe, s.clock())
	if err != nil {
		return nil, "", err
	}
	limit = utils.SanitizeLimit(limit)

	stories, next, err := s.storyRepo.ListPopularRoots(ctx, s.db, voteType, since, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list popular stories",
				zap.String("voteType", string(voteType)), zap.String("timeframe", timeframe), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return stories, next, nil
}

// Search ищет корни по подстроке в заголовке или тексте.
func (s *storyServiceImpl) Search(ctx context.Context, query string, cursor string, limit int) ([]*models.Story, string, error) {
	input := searchInput{Query: trimmed(query)}
	if err := validateStruct(input, searchMessages); err != nil {
		return nil, "", err
	}
	limit = utils.SanitizeLimit(limit)

	stories, next, err := s.storyRepo.SearchRoots(ctx, s.db, input.Query, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to search stories", zap.String("query", input.Query), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return stories, next, nil
}
