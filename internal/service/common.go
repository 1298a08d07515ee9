package service

import (
	"context"
	"errors"
	"strings"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requireActor проверяет, что запрос пришел от аутентифицированного пользователя.
func requireActor(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return models.ErrUnauthorized
	}
	return nil
}

// changeNotifier сбрасывает кэш дерева и рассылает событие. Обе операции best effort:
// к моменту вызова запись уже закоммичена, ошибки только логируются.
type changeNotifier struct {
	cache     interfaces.TreeCache
	publisher interfaces.StoryEventPublisher
	logger    *zap.Logger
}

func newChangeNotifier(cache interfaces.TreeCache, publisher interfaces.StoryEventPublisher, logger *zap.Logger) *changeNotifier {
	return &changeNotifier{cache: cache, publisher: publisher, logger: logger}
}

func (n *changeNotifier) invalidate(ctx context.Context, rootID uuid.UUID) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Invalidate(ctx, rootID); err != nil {
		n.logger.Warn("Failed to invalidate tree cache", zap.String("storyRootID", rootID.String()), zap.Error(err))
	}
}

func (n *changeNotifier) notify(ctx context.Context, event models.StoryEvent) {
	n.invalidate(ctx, event.StoryRootID)
	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishStoryEvent(ctx, event); err != nil {
		n.logger.Warn("Failed to publish story event",
			zap.String("type", string(event.Type)),
			zap.String("storyID", event.StoryID.String()),
			zap.Error(err),
		)
	}
}

// intPtr нужен для необязательных счетчиков в событиях.
func intPtr(v int) *int {
	return &v
}

// isNotFound - короткая проверка models.ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
