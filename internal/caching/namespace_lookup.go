package caching

import (
	"context"

	"gymmanager/internal/tenancy"

	"go.uber.org/zap"
)

// CachedNamespaceLookup answers namespace existence from Redis and falls back
// to the tenant registry. A cache outage degrades to registry lookups.
type CachedNamespaceLookup struct {
	registry tenancy.NamespaceLookup
	cache    CacheService
	logger   *zap.Logger
}

func NewCachedNamespaceLookup(registry tenancy.NamespaceLookup, cache CacheService, logger *zap.Logger) *CachedNamespaceLookup {
	return &CachedNamespaceLookup{registry: registry, cache: cache, logger: logger}
}

func (l *CachedNamespaceLookup) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	exists, found, err := l.cache.GetNamespaceExists(ctx, namespace)
	if err != nil {
		l.logger.Warn("namespace cache read failed", zap.String("namespace", namespace), zap.Error(err))
	} else if found {
		return exists, nil
	}

	exists, err = l.registry.NamespaceExists(ctx, namespace)
	if err != nil {
		return false, err
	}
	if exists {
		if err := l.cache.SetNamespaceExists(ctx, namespace, NamespaceTTL); err != nil {
			l.logger.Warn("namespace cache write failed", zap.String("namespace", namespace), zap.Error(err))
		}
	}
	return exists, nil
}
