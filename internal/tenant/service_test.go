package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

func TestValidateSubdomain(t *testing.T) {
	valid := []string{"acme", "my-company", "abc", " Acme-01 "}
	for _, s := range valid {
		_, err := ValidateSubdomain(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{"", "ab", "-acme", "acme-", "ac_me", "acme.io", "www", "api", "admin", "app", "platform", "dashboard",
		"a123456789012345678901234567890123456789012345678901234567890123"}
	for _, s := range invalid {
		_, err := ValidateSubdomain(s)
		assert.ErrorIs(t, err, ErrInvalidSubdomain, s)
	}

	got, err := ValidateSubdomain("  ACME ")
	require.NoError(t, err)
	assert.Equal(t, "acme", got)
}

func TestRegisterAppliesTierDefaults(t *testing.T) {
	tests := []struct {
		tier models.SubscriptionTier
		want *int
	}{
		{models.TierFree, intPtr(50)},
		{models.TierPro, intPtr(1000)},
		{models.TierEnterprise, nil},
		{"", intPtr(50)},
	}

	for _, tt := range tests {
		svc := NewService(newMemStore(), nil, zap.NewNop())
		created, err := svc.Register(context.Background(), RegisterRequest{
			Subdomain: "acme", Name: "Acme", Tier: tt.tier,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, created.QuotaLimit, string(tt.tier))
		assert.True(t, created.IsActive)
	}
}

func TestRegisterKeepsExplicitQuota(t *testing.T) {
	svc := NewService(newMemStore(), nil, zap.NewNop())

	created, err := svc.Register(context.Background(), RegisterRequest{
		Subdomain: "acme", Name: "Acme", Tier: models.TierEnterprise, QuotaLimit: intPtr(5),
	})
	require.NoError(t, err)
	require.NotNil(t, created.QuotaLimit)
	assert.Equal(t, 5, *created.QuotaLimit)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	store := newMemStore(activeTenant("acme"))
	svc := NewService(store, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Subdomain: "ACME", Name: "Again"})
	assert.ErrorIs(t, err, ErrSubdomainTaken)

	_, err = svc.Register(ctx, RegisterRequest{Subdomain: "www", Name: "Reserved"})
	assert.ErrorIs(t, err, ErrInvalidSubdomain)

	_, err = svc.Register(ctx, RegisterRequest{Subdomain: "globex", Name: "Globex", Tier: "GOLD"})
	assert.Error(t, err)
}

func TestSetActiveInvalidatesCache(t *testing.T) {
	acme := activeTenant("acme")
	store := newMemStore(acme)
	c := newMemCache()
	lookup := NewCachedLookup(store, c, 0, zap.NewNop())
	svc := NewService(store, lookup, zap.NewNop())
	ctx := context.Background()

	_, err := lookup.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, acme.ID, false))
	assert.Contains(t, c.deleted, subdomainKey("acme"))

	got, err := lookup.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSubdomainAvailable(t *testing.T) {
	svc := NewService(newMemStore(activeTenant("acme")), nil, zap.NewNop())
	ctx := context.Background()

	ok, err := svc.SubdomainAvailable(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.SubdomainAvailable(ctx, "globex")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.SubdomainAvailable(ctx, "admin")
	assert.ErrorIs(t, err, ErrInvalidSubdomain)
}

func TestCachedLookup(t *testing.T) {
	store := newMemStore(activeTenant("acme"))
	c := newMemCache()
	lookup := NewCachedLookup(store, c, 0, zap.NewNop())
	ctx := context.Background()

	first, err := lookup.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	second, err := lookup.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.lookups)

	_, err = lookup.GetBySubdomain(ctx, "ghost")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestCachedLookupFallsThroughOnCacheError(t *testing.T) {
	store := newMemStore(activeTenant("acme"))
	c := newMemCache()
	c.getErr = errors.New("redis down")
	lookup := NewCachedLookup(store, c, 0, zap.NewNop())

	got, err := lookup.GetBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)
	assert.Equal(t, 1, store.lookups)
}

func intPtr(v int) *int { return &v }
