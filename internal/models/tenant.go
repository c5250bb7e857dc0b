package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPro        SubscriptionTier = "PRO"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}

// DefaultQuotaForTier returns the combined project+task ceiling for a tier.
// nil means unlimited.
func DefaultQuotaForTier(t SubscriptionTier) *int {
	var limit int
	switch t {
	case TierFree:
		limit = 50
	case TierPro:
		limit = 1000
	default:
		return nil
	}
	return &limit
}

type Tenant struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Subdomain        string           `json:"subdomain" db:"subdomain"`
	Name             string           `json:"name" db:"name"`
	SubscriptionTier SubscriptionTier `json:"subscriptionTier" db:"subscription_tier"`
	QuotaLimit       *int             `json:"quotaLimit" db:"quota_limit"`
	IsActive         bool             `json:"isActive" db:"is_active"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// TenantUsage reports combined resource usage against the tenant's quota.
type TenantUsage struct {
	TenantID     uuid.UUID `json:"tenantId"`
	ProjectCount int64     `json:"projectCount"`
	TaskCount    int64     `json:"taskCount"`
	TotalUsage   int64     `json:"totalUsage"`
	QuotaLimit   *int64    `json:"quotaLimit"`
	Remaining    *int64    `json:"remaining"`
	Unlimited    bool      `json:"unlimited"`
}
