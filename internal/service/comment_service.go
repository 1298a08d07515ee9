package service

import (
	"context"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService управляет комментариями и счетчиком comment_count.
type CommentService interface {
	AddComment(ctx context.Context, actorID, storyID uuid.UUID, content string) (*models.Comment, error)
	EditComment(ctx context.Context, actorID, commentID uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error
	ListComments(ctx context.Context, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error)
	ListUserComments(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error)
	CountComments(ctx context.Context, storyID uuid.UUID) (int, error)
}

type commentServiceImpl struct {
	db          interfaces.DBTX
	txManager   interfaces.TxManager
	storyRepo   interfaces.StoryRepository
	commentRepo interfaces.CommentRepository
	notifier    *changeNotifier
	clock       func() time.Time
	logger      *zap.Logger
}

// NewCommentService создает новый CommentService. cache и publisher могут быть nil.
func NewCommentService(
	db interfaces.DBTX,
	txManager interfaces.TxManager,
	storyRepo interfaces.StoryRepository,
	commentRepo interfaces.CommentRepository,
	cache interfaces.TreeCache,
	publisher interfaces.StoryEventPublisher,
	logger *zap.Logger,
) CommentService {
	log := logger.Named("CommentService")
	return &commentServiceImpl{
		db:          db,
		txManager:   txManager,
		storyRepo:   storyRepo,
		commentRepo: commentRepo,
		notifier:    newChangeNotifier(cache, publisher, log),
		clock:       time.Now,
		logger:      log,
	}
}

func (s *commentServiceImpl) AddComment(ctx context.Context, actorID, storyID uuid.UUID, content string) (*models.Comment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	input := commentInput{Content: trimmed(content)}
	if err := validateStruct(input, commentMessages); err != nil {
		return nil, err
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("storyID", storyID.String()),
	}

	comment := &models.Comment{
		ID:      uuid.New(),
		StoryID: storyID,
		UserID:  actorID,
		Content: input.Content,
	}
	var (
		rootID uuid.UUID
		count  int
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		story, err := s.storyRepo.GetByID(ctx, tx, storyID)
		if err != nil {
			return err
		}
		rootID = story.StoryRootID

		if err := s.commentRepo.Create(ctx, tx, comment); err != nil {
			return err
		}
		count, err = s.storyRepo.AdjustCommentCount(ctx, tx, storyID, +1)
		return err
	})
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to add comment", append(logFields, zap.Error(err))...)
		}
		return nil, storageFailure(err)
	}

	s.logger.Info("Comment added", append(logFields, zap.String("commentID", comment.ID.String()))...)
	s.publishCommentEvent(ctx, models.EventCommentAdded, rootID, comment)
	s.publishCommentCount(ctx, rootID, storyID, count)
	return comment, nil
}

// EditComment меняет текст комментария. Редактировать может только автор.
func (s *commentServiceImpl) EditComment(ctx context.Context, actorID, commentID uuid.UUID, content string) (*models.Comment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	input := commentInput{Content: trimmed(content)}
	if err := validateStruct(input, commentMessages); err != nil {
		return nil, err
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("commentID", commentID.String()),
	}

	var (
		updated *models.Comment
		rootID  uuid.UUID
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		existing, err := s.commentRepo.GetByID(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if existing.UserID != actorID {
			return models.ErrForbidden
		}
		story, err := s.storyRepo.GetByID(ctx, tx, existing.StoryID)
		if err != nil {
			return err
		}
		rootID = story.StoryRootID

		updated, err = s.commentRepo.UpdateContent(ctx, tx, commentID, input.Content)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to edit comment", append(logFields, zap.Error(err))...)
		} else {
			s.logger.Info("Comment edit rejected", append(logFields, zap.Error(err))...)
		}
		return nil, storageFailure(err)
	}

	s.publishCommentEvent(ctx, models.EventCommentUpdated, rootID, updated)
	return updated, nil
}

// DeleteComment удаляет комментарий. Удалять может только автор.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("commentID", commentID.String()),
	}

	var (
		existing *models.Comment
		rootID   uuid.UUID
		count    int
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		existing, err = s.commentRepo.GetByID(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if existing.UserID != actorID {
			return models.ErrForbidden
		}
		story, err := s.storyRepo.GetByID(ctx, tx, existing.StoryID)
		if err != nil {
			return err
		}
		rootID = story.StoryRootID

		if err := s.commentRepo.Delete(ctx, tx, commentID); err != nil {
			return err
		}
		count, err = s.storyRepo.AdjustCommentCount(ctx, tx, existing.StoryID, -1)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to delete comment", append(logFields, zap.Error(err))...)
		} else {
			s.logger.Info("Comment delete rejected", append(logFields, zap.Error(err))...)
		}
		return storageFailure(err)
	}

	s.logger.Info("Comment deleted", logFields...)
	s.publishCommentEvent(ctx, models.EventCommentDeleted, rootID, existing)
	s.publishCommentCount(ctx, rootID, existing.StoryID, count)
	return nil
}

// ListComments возвращает комментарии узла, новые первыми.
func (s *commentServiceImpl) ListComments(ctx context.Context, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	limit = utils.SanitizeLimit(limit)
	comments, next, err := s.commentRepo.ListByStory(ctx, s.db, storyID, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list comments", zap.String("storyID", storyID.String()), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return comments, next, nil
}

func (s *commentServiceImpl) ListUserComments(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	limit = utils.SanitizeLimit(limit)
	comments, next, err := s.commentRepo.ListByUser(ctx, s.db, userID, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list user comments", zap.String("userID", userID.String()), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return comments, next, nil
}

func (s *commentServiceImpl) CountComments(ctx context.Context, storyID uuid.UUID) (int, error) {
	count, err := s.commentRepo.CountByStory(ctx, s.db, storyID)
	if err != nil {
		s.logger.Error("Failed to count comments", zap.String("storyID", storyID.String()), zap.Error(err))
		return 0, storageFailure(err)
	}
	return count, nil
}

func (s *commentServiceImpl) publishCommentEvent(ctx context.Context, eventType models.StoryEventType, rootID uuid.UUID, comment *models.Comment) {
	s.notifier.notify(ctx, models.StoryEvent{
		Type:        eventType,
		StoryID:     comment.StoryID,
		StoryRootID: rootID,
		Comment:     comment,
		OccurredAt:  s.clock().UTC(),
	})
}

func (s *commentServiceImpl) publishCommentCount(ctx context.Context, rootID, storyID uuid.UUID, count int) {
	s.notifier.notify(ctx, models.StoryEvent{
		Type:         models.EventCommentCountUpdate,
		StoryID:      storyID,
		StoryRootID:  rootID,
		CommentCount: intPtr(count),
		OccurredAt:   s.clock().UTC(),
	})
}
