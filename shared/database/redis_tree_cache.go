package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTreeCacheTTL - время жизни закэшированного дерева, если не задано в конфиге.
const DefaultTreeCacheTTL = 5 * time.Minute

// Ключ версии живет дольше самого дерева, иначе сброс счетчика в 0 совпадет со старым чтением.
const treeVersionTTL = 24 * time.Hour

// Compile-time check
var _ interfaces.TreeCache = (*redisTreeCache)(nil)

type redisTreeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTreeCache создает кэш деревьев поверх Redis.
func NewRedisTreeCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.TreeCache {
	if ttl <= 0 {
		ttl = DefaultTreeCacheTTL
	}
	return &redisTreeCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisTreeCache"),
	}
}

func treeCacheKey(rootID uuid.UUID) string {
	return fmt.Sprintf("story_tree:%s", rootID.String())
}

func treeVersionKey(rootID uuid.UUID) string {
	return fmt.Sprintf("story_tree_version:%s", rootID.String())
}

func (c *redisTreeCache) Version(ctx context.Context, rootID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, treeVersionKey(rootID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		c.logger.Error("Failed to read tree version", zap.String("storyRootID", rootID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to read tree version: %w", err)
	}
	return version, nil
}

func (c *redisTreeCache) Get(ctx context.Context, rootID uuid.UUID) ([]*models.Story, bool, error) {
	raw, err := c.client.Get(ctx, treeCacheKey(rootID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		c.logger.Error("Failed to read tree from redis", zap.String("storyRootID", rootID.String()), zap.Error(err))
		return nil, false, fmt.Errorf("failed to read cached tree: %w", err)
	}

	var nodes []*models.Story
	if err := json.Unmarshal(raw, &nodes); err != nil {
		// Битая запись: считаем промахом и удаляем.
		c.logger.Warn("Corrupted cached tree, dropping", zap.String("storyRootID", rootID.String()), zap.Error(err))
		_ = c.client.Del(ctx, treeCacheKey(rootID)).Err()
		return nil, false, nil
	}
	return nodes, true, nil
}

// Set пишет дерево, только если с момента Version(ctx, rootID) не было Invalidate.
// Устаревший снимок молча отбрасывается.
func (c *redisTreeCache) Set(ctx context.Context, rootID uuid.UUID, version int64, nodes []*models.Story) error {
	raw, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	versionKey := treeVersionKey(rootID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleTree
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, treeCacheKey(rootID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleTree), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipped caching stale tree", zap.String("storyRootID", rootID.String()), zap.Int64("version", version))
		return nil
	default:
		c.logger.Error("Failed to write tree to redis", zap.String("storyRootID", rootID.String()), zap.Error(err))
		return fmt.Errorf("failed to cache tree: %w", err)
	}
}

var errStaleTree = errors.New("tree version changed")

// Invalidate удаляет дерево и поднимает версию, чтобы отстающий Set не вернул старый снимок.
func (c *redisTreeCache) Invalidate(ctx context.Context, rootID uuid.UUID) error {
	versionKey := treeVersionKey(rootID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, treeVersionTTL)
		pipe.Del(ctx, treeCacheKey(rootID))
		return nil
	})
	if err != nil {
		c.logger.Error("Failed to invalidate cached tree", zap.String("storyRootID", rootID.String()), zap.Error(err))
		return fmt.Errorf("failed to invalidate cached tree: %w", err)
	}
	return nil
}
