package service

import (
	"context"
	"errors"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// castVoteAttempts - первая попытка плюс один повтор после гонки двух первых голосов.
const castVoteAttempts = 2

// VoteService управляет голосами пользователей и счетчиками like/dislike.
type VoteService interface {
	CastVote(ctx context.Context, actorID, storyID uuid.UUID, voteType models.VoteType) (*models.VoteState, error)
	RetractVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteState, error)
	GetUserVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteType, error)
	GetVoteStats(ctx context.Context, storyID uuid.UUID) (*models.VoteStats, error)
	ListUserVotes(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error)
}

type voteServiceImpl struct {
	db        interfaces.DBTX
	txManager interfaces.TxManager
	storyRepo interfaces.StoryRepository
	voteRepo  interfaces.VoteRepository
	notifier  *changeNotifier
	clock     func() time.Time
	logger    *zap.Logger
}

// NewVoteService создает новый VoteService. cache и publisher могут быть nil.
func NewVoteService(
	db interfaces.DBTX,
	txManager interfaces.TxManager,
	storyRepo interfaces.StoryRepository,
	voteRepo interfaces.VoteRepository,
	cache interfaces.TreeCache,
	publisher interfaces.StoryEventPublisher,
	logger *zap.Logger,
) VoteService {
	log := logger.Named("VoteService")
	return &voteServiceImpl{
		db:        db,
		txManager: txManager,
		storyRepo: storyRepo,
		voteRepo:  voteRepo,
		notifier:  newChangeNotifier(cache, publisher, log),
		clock:     time.Now,
		logger:    log,
	}
}

// voteDeltas возвращает изменения счетчиков при переходе от голоса from к голосу to (nil - голоса нет).
func voteDeltas(from, to *models.VoteType) (likeDelta, dislikeDelta int) {
	apply := func(v *models.VoteType, sign int) {
		if v == nil {
			return
		}
		switch *v {
		case models.VoteLike:
			likeDelta += sign
		case models.VoteDislike:
			dislikeDelta += sign
		}
	}
	apply(from, -1)
	apply(to, +1)
	return likeDelta, dislikeDelta
}

// CastVote ставит голос. Повторный голос того же типа ничего не меняет,
// голос другого типа перезаписывает прежний на месте.
func (s *voteServiceImpl) CastVote(ctx context.Context, actorID, storyID uuid.UUID, voteType models.VoteType) (*models.VoteState, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !voteType.IsValid() {
		return nil, models.NewValidationError("vote_type", "Vote type must be like or dislike")
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("voteType", string(voteType)),
	}

	var (
		state   *models.VoteState
		rootID  uuid.UUID
		changed bool
		err     error
	)
	for attempt := 1; attempt <= castVoteAttempts; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
			story, err := s.storyRepo.GetByID(ctx, tx, storyID)
			if err != nil {
				return err
			}
			rootID = story.StoryRootID

			var previous *models.VoteType
			existing, err := s.voteRepo.GetForUpdate(ctx, tx, actorID, storyID)
			switch {
			case err == nil:
				previous = &existing.VoteType
			case isNotFound(err):
			default:
				return err
			}

			next := voteType
			state = &models.VoteState{StoryID: storyID, VoteType: &next, LikeCount: story.LikeCount, DislikeCount: story.DislikeCount}

			switch {
			case previous == nil:
				if err := s.voteRepo.Insert(ctx, tx, actorID, storyID, voteType); err != nil {
					return err
				}
			case *previous == voteType:
				changed = false
				return nil
			default:
				if err := s.voteRepo.UpdateType(ctx, tx, actorID, storyID, voteType); err != nil {
					return err
				}
			}

			likeDelta, dislikeDelta := voteDeltas(previous, &next)
			likes, dislikes, err := s.storyRepo.AdjustVoteCounts(ctx, tx, storyID, likeDelta, dislikeDelta)
			if err != nil {
				return err
			}
			state.LikeCount, state.DislikeCount = likes, dislikes
			changed = true
			return nil
		})
		if !errors.Is(err, interfaces.ErrVoteAlreadyExists) {
			break
		}
		s.logger.Info("Concurrent first vote detected, retrying", append(logFields, zap.Int("attempt", attempt))...)
	}
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to cast vote", append(logFields, zap.Error(err))...)
		}
		if errors.Is(err, interfaces.ErrVoteAlreadyExists) {
			return nil, models.ErrStorage
		}
		return nil, storageFailure(err)
	}

	if changed {
		s.publishVoteUpdate(ctx, rootID, state)
	}
	s.logger.Debug("Vote cast", append(logFields, zap.Bool("changed", changed))...)
	return state, nil
}

// RetractVote снимает голос. Если голоса не было, ничего не меняется и ошибки нет.
func (s *voteServiceImpl) RetractVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteState, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("storyID", storyID.String()),
	}

	var (
		state  *models.VoteState
		rootID uuid.UUID
		had    bool
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		story, err := s.storyRepo.GetByID(ctx, tx, storyID)
		if err != nil {
			return err
		}
		rootID = story.StoryRootID
		state = &models.VoteState{StoryID: storyID, LikeCount: story.LikeCount, DislikeCount: story.DislikeCount}

		removed, err := s.voteRepo.Delete(ctx, tx, actorID, storyID)
		if err != nil {
			return err
		}
		if removed == nil {
			return nil
		}

		likeDelta, dislikeDelta := voteDeltas(removed, nil)
		likes, dislikes, err := s.storyRepo.AdjustVoteCounts(ctx, tx, storyID, likeDelta, dislikeDelta)
		if err != nil {
			return err
		}
		state.LikeCount, state.DislikeCount = likes, dislikes
		had = true
		return nil
	})
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to retract vote", append(logFields, zap.Error(err))...)
		}
		return nil, storageFailure(err)
	}

	if had {
		s.publishVoteUpdate(ctx, rootID, state)
	}
	return state, nil
}

func (s *voteServiceImpl) publishVoteUpdate(ctx context.Context, rootID uuid.UUID, state *models.VoteState) {
	s.notifier.notify(ctx, models.StoryEvent{
		Type:         models.EventVoteUpdate,
		StoryID:      state.StoryID,
		StoryRootID:  rootID,
		LikeCount:    intPtr(state.LikeCount),
		DislikeCount: intPtr(state.DislikeCount),
		OccurredAt:   s.clock().UTC(),
	})
}

// GetUserVote возвращает тип голоса пользователя или nil, если голоса нет или пользователь анонимный.
func (s *voteServiceImpl) GetUserVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteType, error) {
	if actorID == uuid.Nil {
		return nil, nil
	}
	vote, err := s.voteRepo.Get(ctx, s.db, actorID, storyID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		s.logger.Error("Failed to get user vote", zap.String("userID", actorID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, storageFailure(err)
	}
	voteType := vote.VoteType
	return &voteType, nil
}

func (s *voteServiceImpl) GetVoteStats(ctx context.Context, storyID uuid.UUID) (*models.VoteStats, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to get story for vote stats", zap.String("storyID", storyID.String()), zap.Error(err))
		}
		return nil, storageFailure(err)
	}

	stats := &models.VoteStats{
		StoryID:      storyID,
		LikeCount:    story.LikeCount,
		DislikeCount: story.DislikeCount,
		Total:        story.LikeCount + story.DislikeCount,
	}
	if stats.Total > 0 {
		stats.Ratio = float64(stats.LikeCount) / float64(stats.Total)
	}
	return stats, nil
}

func (s *voteServiceImpl) ListUserVotes(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error) {
	limit = utils.SanitizeLimit(limit)
	votes, next, err := s.voteRepo.ListByUser(ctx, s.db, userID, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list user votes", zap.String("userID", userID.String()), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return votes, next, nil
}
