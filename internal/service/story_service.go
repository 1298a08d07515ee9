package service

import (
	"context"
	"errors"
	"time"

	"alterstory-server/internal/tree"
	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxContinuations - лимит продолжений узла, если в конфиге не задан другой.
const DefaultMaxContinuations = 3

// StoryService - создание узлов и чтение деревьев историй.
type StoryService interface {
	CreateRoot(ctx context.Context, actorID uuid.UUID, title, content string) (*models.Story, error)
	AttemptContinuation(ctx context.Context, actorID, parentID, rootID uuid.UUID, title, content string) (*models.Story, error)

	GetStoryWithChildren(ctx context.Context, storyID uuid.UUID) (*models.StoryWithChildren, error)
	GetTree(ctx context.Context, rootID uuid.UUID) ([]*models.Story, error)
	GetNestedTree(ctx context.Context, rootID, currentID uuid.UUID) ([]*tree.Node, error)
	GetBreadcrumbs(ctx context.Context, storyID uuid.UUID) ([]*models.Story, error)
	GetContributionStatus(ctx context.Context, actorID, rootID uuid.UUID) (*models.ContributionStatus, error)

	ListFeed(ctx context.Context, cursor string, limit int) ([]*models.Story, string, error)
	ListPopular(ctx context.Context, voteType models.VoteType, timeframe string, cursor string, limit int) ([]*models.Story, string, error)
	Search(ctx context.Context, query string, cursor string, limit int) ([]*models.Story, string, error)
}

// StoryServiceConfig - настраиваемые параметры StoryService.
type StoryServiceConfig struct {
	DefaultMaxContinuations int
}

type storyServiceImpl struct {
	db               interfaces.DBTX
	txManager        interfaces.TxManager
	storyRepo        interfaces.StoryRepository
	contributionRepo interfaces.ContributionRepository
	commentRepo      interfaces.CommentRepository
	cache            interfaces.TreeCache
	notifier         *changeNotifier
	maxContinuations int
	clock            func() time.Time
	logger           *zap.Logger
}

// NewStoryService создает новый StoryService. cache и publisher могут быть nil.
func NewStoryService(
	db interfaces.DBTX,
	txManager interfaces.TxManager,
	storyRepo interfaces.StoryRepository,
	contributionRepo interfaces.ContributionRepository,
	commentRepo interfaces.CommentRepository,
	cache interfaces.TreeCache,
	publisher interfaces.StoryEventPublisher,
	cfg StoryServiceConfig,
	logger *zap.Logger,
) StoryService {
	maxContinuations := cfg.DefaultMaxContinuations
	if maxContinuations <= 0 {
		maxContinuations = DefaultMaxContinuations
	}
	log := logger.Named("StoryService")
	return &storyServiceImpl{
		db:               db,
		txManager:        txManager,
		storyRepo:        storyRepo,
		contributionRepo: contributionRepo,
		commentRepo:      commentRepo,
		cache:            cache,
		notifier:         newChangeNotifier(cache, publisher, log),
		maxContinuations: maxContinuations,
		clock:            time.Now,
		logger:           log,
	}
}

// CreateRoot создает корень нового дерева и запись реестра типа create.
func (s *storyServiceImpl) CreateRoot(ctx context.Context, actorID uuid.UUID, title, content string) (*models.Story, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	input := storyInput{Title: trimmed(title), Content: trimmed(content)}
	if err := validateStruct(input, storyMessages("Story")); err != nil {
		return nil, err
	}

	id := uuid.New()
	story := &models.Story{
		ID:               id,
		Title:            input.Title,
		Content:          input.Content,
		AuthorID:         actorID,
		StoryRootID:      id,
		Level:            0,
		MaxContinuations: s.maxContinuations,
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("storyID", id.String()),
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.storyRepo.Create(ctx, tx, story); err != nil {
			return err
		}
		return s.contributionRepo.Create(ctx, tx, &models.Contribution{
			UserID:           actorID,
			StoryRootID:      id,
			StoryID:          id,
			ContributionType: models.ContributionCreate,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create root story", append(logFields, zap.Error(err))...)
		return nil, storageFailure(err)
	}

	s.logger.Info("Root story created", logFields...)
	return story, nil
}

// AttemptContinuation добавляет продолжение к узлу parentID дерева rootID.
// Вставка узла, запись реестра, пересчет счетчика родителя и исправление position
// выполняются в одной транзакции; строка родителя блокируется до проверки лимита.
func (s *storyServiceImpl) AttemptContinuation(ctx context.Context, actorID, parentID, rootID uuid.UUID, title, content string) (*models.Story, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	input := storyInput{Title: trimmed(title), Content: trimmed(content)}
	if err := validateStruct(input, storyMessages("Continuation")); err != nil {
		return nil, err
	}

	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("parentID", parentID.String()),
		zap.String("storyRootID", rootID.String()),
	}

	// Ранний выход. Окончательно правило держит уникальный индекс реестра.
	_, err := s.contributionRepo.GetByUserAndRoot(ctx, s.db, actorID, rootID)
	switch {
	case err == nil:
		s.logger.Info("User has already contributed to this tree", logFields...)
		return nil, models.ErrAlreadyContributed
	case !isNotFound(err):
		s.logger.Error("Failed to check contribution ledger", append(logFields, zap.Error(err))...)
		return nil, storageFailure(err)
	}

	var (
		child         *models.Story
		parentCount   int
		parentStoryID uuid.UUID
	)
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		parent, err := s.storyRepo.GetByIDForUpdate(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if parent.StoryRootID != rootID {
			s.logger.Warn("Parent story belongs to another tree",
				append(logFields, zap.String("actualRootID", parent.StoryRootID.String()))...)
			return models.ErrNotFound
		}
		if !parent.HasCapacity() {
			return models.ErrCapacityExceeded
		}

		child = &models.Story{
			ID:               uuid.New(),
			Title:            input.Title,
			Content:          input.Content,
			AuthorID:         actorID,
			ParentID:         &parent.ID,
			StoryRootID:      rootID,
			Level:            parent.Level + 1,
			Position:         parent.ContinuationCount,
			MaxContinuations: s.maxContinuations,
		}
		if err := s.storyRepo.Create(ctx, tx, child); err != nil {
			return err
		}
		if err := s.contributionRepo.Create(ctx, tx, &models.Contribution{
			UserID:           actorID,
			StoryRootID:      rootID,
			StoryID:          child.ID,
			ContributionType: models.ContributionContinue,
		}); err != nil {
			return err
		}

		count, err := s.storyRepo.RecountContinuations(ctx, tx, parent.ID)
		if err != nil {
			return err
		}
		if position := count - 1; position != child.Position {
			if err := s.storyRepo.UpdatePosition(ctx, tx, child.ID, position); err != nil {
				return err
			}
			child.Position = position
		}
		parentCount = count
		parentStoryID = parent.ID
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyContributed):
			s.logger.Info("Concurrent contribution detected by ledger constraint", logFields...)
		case errors.Is(err, models.ErrCapacityExceeded), isNotFound(err):
			s.logger.Info("Continuation rejected", append(logFields, zap.Error(err))...)
		default:
			s.logger.Error("Failed to add continuation", append(logFields, zap.Error(err))...)
		}
		return nil, storageFailure(err)
	}

	s.logger.Info("Continuation added",
		append(logFields, zap.String("storyID", child.ID.String()), zap.Int("continuationCount", parentCount))...)

	s.notifier.notify(ctx, models.StoryEvent{
		Type:              models.EventContinuationAdded,
		StoryID:           child.ID,
		StoryRootID:       rootID,
		ParentID:          &parentStoryID,
		ContinuationCount: intPtr(parentCount),
		OccurredAt:        s.clock().UTC(),
	})
	return child, nil
}

func (s *storyServiceImpl) GetStoryWithChildren(ctx context.Context, storyID uuid.UUID) (*models.StoryWithChildren, error) {
	log := s.logger.With(zap.String("storyID", storyID.String()))

	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		if !isNotFound(err) {
			log.Error("Failed to get story", zap.Error(err))
		}
		return nil, storageFailure(err)
	}

	children, err := s.storyRepo.ListChildren(ctx, s.db, storyID)
	if err != nil {
		log.Error("Failed to list children", zap.Error(err))
		return nil, storageFailure(err)
	}

	comments, nextCursor, err := s.commentRepo.ListByStory(ctx, s.db, storyID, "", utils.DefaultPageLimit)
	if err != nil {
		log.Error("Failed to list comments", zap.Error(err))
		return nil, storageFailure(err)
	}

	if children == nil {
		children = []*models.Story{}
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &models.StoryWithChildren{
		Story:              story,
		Children:           children,
		Comments:           comments,
		CommentsNextCursor: nextCursor,
	}, nil
}

// GetTree возвращает все узлы дерева в порядке (level, position). Пустое дерево - ErrNotFound.
func (s *storyServiceImpl) GetTree(ctx context.Context, rootID uuid.UUID) ([]*models.Story, error) {
	if s.cache != nil {
		nodes, hit, err := s.cache.Get(ctx, rootID)
		if err != nil {
			s.logger.Warn("Tree cache read failed, falling back to database",
				zap.String("storyRootID", rootID.String()), zap.Error(err))
		} else if hit && len(nodes) > 0 {
			return tree.Flatten(nodes), nil
		}
	}
	return s.loadTree(ctx, rootID)
}

// loadTree читает дерево из БД мимо кэша и кладет результат в кэш.
// Версия берется до чтения: если дерево за это время инвалидировали, снимок не сохранится.
func (s *storyServiceImpl) loadTree(ctx context.Context, rootID uuid.UUID) ([]*models.Story, error) {
	log := s.logger.With(zap.String("storyRootID", rootID.String()))

	var version int64
	cacheable := s.cache != nil
	if cacheable {
		v, err := s.cache.Version(ctx, rootID)
		if err != nil {
			log.Warn("Failed to read tree cache version, skipping cache write", zap.Error(err))
			cacheable = false
		}
		version = v
	}

	nodes, err := s.storyRepo.ListByRoot(ctx, s.db, rootID)
	if err != nil {
		log.Error("Failed to load tree", zap.Error(err))
		return nil, storageFailure(err)
	}
	if len(nodes) == 0 {
		return nil, models.ErrNotFound
	}

	if cacheable {
		if err := s.cache.Set(ctx, rootID, version, nodes); err != nil {
			log.Warn("Failed to cache tree", zap.Error(err))
		}
	}
	return nodes, nil
}

// treeContaining - GetTree, который перечитывает БД, если в закэшированном наборе нет nodeID.
func (s *storyServiceImpl) treeContaining(ctx context.Context, rootID, nodeID uuid.UUID) ([]*models.Story, error) {
	nodes, err := s.GetTree(ctx, rootID)
	if err != nil || s.cache == nil || nodeID == uuid.Nil || containsNode(nodes, nodeID) {
		return nodes, err
	}
	s.logger.Info("Cached tree misses node, reloading",
		zap.String("storyRootID", rootID.String()), zap.String("storyID", nodeID.String()))
	return s.loadTree(ctx, rootID)
}

func containsNode(nodes []*models.Story, id uuid.UUID) bool {
	for _, n := range nodes {
		if n != nil && n.ID == id {
			return true
		}
	}
	return false
}

func (s *storyServiceImpl) GetNestedTree(ctx context.Context, rootID, currentID uuid.UUID) ([]*tree.Node, error) {
	nodes, err := s.treeContaining(ctx, rootID, currentID)
	if err != nil {
		return nil, err
	}
	return tree.BuildTree(nodes, currentID), nil
}

func (s *storyServiceImpl) GetBreadcrumbs(ctx context.Context, storyID uuid.UUID) ([]*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to get story for breadcrumbs", zap.String("storyID", storyID.String()), zap.Error(err))
		}
		return nil, storageFailure(err)
	}
	if story.IsRoot() {
		return []*models.Story{story}, nil
	}

	nodes, err := s.treeContaining(ctx, story.StoryRootID, storyID)
	if err != nil {
		return nil, err
	}
	return tree.BuildBreadcrumbs(storyID, nodes), nil
}

// GetContributionStatus для анонимного пользователя всегда возвращает "не участвовал".
func (s *storyServiceImpl) GetContributionStatus(ctx context.Context, actorID, rootID uuid.UUID) (*models.ContributionStatus, error) {
	status := &models.ContributionStatus{}
	if actorID == uuid.Nil {
		return status, nil
	}

	contribution, err := s.contributionRepo.GetByUserAndRoot(ctx, s.db, actorID, rootID)
	if err != nil {
		if isNotFound(err) {
			return status, nil
		}
		s.logger.Error("Failed to get contribution status",
			zap.String("userID", actorID.String()), zap.String("storyRootID", rootID.String()), zap.Error(err))
		return nil, storageFailure(err)
	}

	contributionType := contribution.ContributionType
	status.HasContributed = true
	status.ContributionType = &contributionType
	return status, nil
}
