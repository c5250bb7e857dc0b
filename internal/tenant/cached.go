package tenant

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/cache"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type JSONCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedLookup fronts subdomain lookups with a JSON cache. Cache failures
// degrade to a store read; the store is still hit at most once per call.
type CachedLookup struct {
	next  Lookup
	cache JSONCache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedLookup(next Lookup, c JSONCache, ttl time.Duration, log *zap.Logger) *CachedLookup {
	return &CachedLookup{next: next, cache: c, ttl: ttl, log: log}
}

func subdomainKey(subdomain string) string {
	return "tenant:subdomain:" + subdomain
}

func (l *CachedLookup) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var t models.Tenant
	err := l.cache.Get(ctx, subdomainKey(subdomain), &t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		l.log.Warn("tenant cache read failed", zap.String("subdomain", subdomain), zap.Error(err))
	}

	found, err := l.next.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, subdomainKey(subdomain), found, l.ttl); err != nil {
		l.log.Warn("tenant cache write failed", zap.String("subdomain", subdomain), zap.Error(err))
	}
	return found, nil
}

func (l *CachedLookup) Invalidate(ctx context.Context, subdomain string) {
	if err := l.cache.Delete(ctx, subdomainKey(subdomain)); err != nil {
		l.log.Warn("tenant cache invalidate failed", zap.String("subdomain", subdomain), zap.Error(err))
	}
}
