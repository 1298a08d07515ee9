package interfaces

import (
	"context"

	"alterstory-server/shared/models"
)

// StoryEventPublisher отправляет уведомления об изменениях дерева.
//
//go:generate mockery --name StoryEventPublisher --output ./mocks --outpkg mocks --case=underscore
type StoryEventPublisher interface {
	PublishStoryEvent(ctx context.Context, event models.StoryEvent) error
}
