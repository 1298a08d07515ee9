package mocks

import (
	"context"
	"io"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TreeCache is a mock type for the TreeCache type
type TreeCache struct {
	mock.Mock
}

var _ interfaces.TreeCache = (*TreeCache)(nil)

func (m *TreeCache) Get(ctx context.Context, rootID uuid.UUID) ([]*models.Story, bool, error) {
	args := m.Called(ctx, rootID)
	nodes, _ := args.Get(0).([]*models.Story)
	return nodes, args.Bool(1), args.Error(2)
}

func (m *TreeCache) Version(ctx context.Context, rootID uuid.UUID) (int64, error) {
	args := m.Called(ctx, rootID)
	version, _ := args.Get(0).(int64)
	return version, args.Error(1)
}

func (m *TreeCache) Set(ctx context.Context, rootID uuid.UUID, version int64, nodes []*models.Story) error {
	args := m.Called(ctx, rootID, version, nodes)
	return args.Error(0)
}

func (m *TreeCache) Invalidate(ctx context.Context, rootID uuid.UUID) error {
	args := m.Called(ctx, rootID)
	return args.Error(0)
}

// StoryEventPublisher is a mock type for the StoryEventPublisher type
type StoryEventPublisher struct {
	mock.Mock
}

var _ interfaces.StoryEventPublisher = (*StoryEventPublisher)(nil)

func (m *StoryEventPublisher) PublishStoryEvent(ctx context.Context, event models.StoryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ObjectStore is a mock type for the ObjectStore type
type ObjectStore struct {
	mock.Mock
}

var _ interfaces.ObjectStore = (*ObjectStore)(nil)

func (m *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, r, size, contentType)
	return args.Error(0)
}

func (m *ObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *ObjectStore) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *ObjectStore) KeyFromURL(url string) (string, bool) {
	args := m.Called(url)
	return args.String(0), args.Bool(1)
}
