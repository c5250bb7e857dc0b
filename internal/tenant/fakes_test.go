package tenant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/cache"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*models.Tenant
	lookups int
	err     error
}

func newMemStore(ts ...*models.Tenant) *memStore {
	s := &memStore{tenants: map[uuid.UUID]*models.Tenant{}}
	for _, t := range ts {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) GetBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	for _, t := range s.tenants {
		if t.Subdomain == subdomain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (s *memStore) Create(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *memStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return ErrTenantNotFound
	}
	t.IsActive = active
	return nil
}

type memCache struct {
	mu      sync.Mutex
	data    map[string]models.Tenant
	getErr  error
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]models.Tenant{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	t, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	p, ok := dest.(*models.Tenant)
	if !ok {
		return errors.New("unexpected destination type")
	}
	*p = t
	return nil
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = *(value.(*models.Tenant))
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func activeTenant(subdomain string) *models.Tenant {
	return &models.Tenant{
		ID:               uuid.New(),
		Subdomain:        subdomain,
		Name:             subdomain,
		SubscriptionTier: models.TierFree,
		QuotaLimit:       models.DefaultQuotaForTier(models.TierFree),
		IsActive:         true,
	}
}
