package caching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "gymmanager"

	NamespaceTTL      = 10 * time.Minute
	ProcessedEventTTL = 72 * time.Hour
)

type CacheService interface {
	// Namespace registry cache. Only positive lookups are stored so a tenant
	// registered a moment ago is never reported missing.
	GetNamespaceExists(ctx context.Context, namespace string) (exists bool, found bool, err error)
	SetNamespaceExists(ctx context.Context, namespace string, ttl time.Duration) error

	// Processed billing notifications.
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisClient accepts a bare host:port or a redis:// / rediss:// URL.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("Redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(pingErr))
	} else {
		logger.Debug("Redis connection established", zap.String("addr", parsedAddr))
	}
	return client
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func namespaceKey(namespace string) string {
	return fmt.Sprintf("%s:namespace:%s", keyPrefix, namespace)
}

func eventKey(eventID string) string {
	return fmt.Sprintf("%s:billing_event:%s", keyPrefix, eventID)
}

func (r *redisCacheService) GetNamespaceExists(ctx context.Context, namespace string) (bool, bool, error) {
	_, err := r.client.Get(ctx, namespaceKey(namespace)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil // cache miss
		}
		return false, false, err
	}
	return true, true, nil
}

func (r *redisCacheService) SetNamespaceExists(ctx context.Context, namespace string, ttl time.Duration) error {
	return r.client.Set(ctx, namespaceKey(namespace), "1", ttl).Err()
}

func (r *redisCacheService) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := r.client.Exists(ctx, eventKey(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisCacheService) MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	return r.client.Set(ctx, eventKey(eventID), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
