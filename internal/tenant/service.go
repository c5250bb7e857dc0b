package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)

var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "admin": {}, "app": {}, "platform": {},
	"mail": {}, "email": {}, "support": {}, "help": {}, "docs": {},
	"blog": {}, "status": {}, "cdn": {}, "assets": {}, "static": {},
	"ftp": {}, "smtp": {}, "pop": {}, "imap": {}, "webmail": {},
	"portal": {}, "dashboard": {},
}

// IsReserved reports whether subdomain can never be registered.
func IsReserved(subdomain string) bool {
	_, ok := reservedSubdomains[strings.ToLower(strings.TrimSpace(subdomain))]
	return ok
}

// ValidateSubdomain checks the registration rules and returns the
// normalized subdomain. Failures wrap ErrInvalidSubdomain.
func ValidateSubdomain(subdomain string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(subdomain))
	switch {
	case s == "":
		return "", fmt.Errorf("%w: subdomain cannot be empty", ErrInvalidSubdomain)
	case len(s) < 3 || len(s) > 63:
		return "", fmt.Errorf("%w: %q must be between 3 and 63 characters", ErrInvalidSubdomain, subdomain)
	case !subdomainPattern.MatchString(s):
		return "", fmt.Errorf("%w: %q must contain only lowercase letters, numbers, and hyphens", ErrInvalidSubdomain, subdomain)
	case strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-"):
		return "", fmt.Errorf("%w: %q cannot start or end with a hyphen", ErrInvalidSubdomain, subdomain)
	case IsReserved(s):
		return "", fmt.Errorf("%w: %q is reserved and cannot be used", ErrInvalidSubdomain, subdomain)
	}
	return s, nil
}

// Invalidator drops cached lookups after a tenant changes.
type Invalidator interface {
	Invalidate(ctx context.Context, subdomain string)
}

type RegisterRequest struct {
	Subdomain  string                  `json:"subdomain" validate:"required,min=3,max=63"`
	Name       string                  `json:"name" validate:"required,max=255"`
	Tier       models.SubscriptionTier `json:"subscriptionTier" validate:"omitempty,oneof=FREE PRO ENTERPRISE"`
	QuotaLimit *int                    `json:"quotaLimit" validate:"omitempty,min=0"`
}

type Service struct {
	store Store
	cache Invalidator
	log   *zap.Logger
}

func NewService(store Store, cache Invalidator, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

// Register creates an active tenant. An explicit quota limit always wins
// over the tier default.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Tenant, error) {
	subdomain, err := ValidateSubdomain(req.Subdomain)
	if err != nil {
		return nil, err
	}

	tier := req.Tier
	if tier == "" {
		tier = models.TierFree
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("unknown subscription tier %q", tier)
	}

	if _, err := s.store.GetBySubdomain(ctx, subdomain); err == nil {
		return nil, ErrSubdomainTaken
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}

	quota := req.QuotaLimit
	if quota == nil {
		quota = models.DefaultQuotaForTier(tier)
	}

	t := &models.Tenant{
		Subdomain:        subdomain,
		Name:             strings.TrimSpace(req.Name),
		SubscriptionTier: tier,
		QuotaLimit:       quota,
		IsActive:         true,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, subdomain)
	}

	s.log.Info("tenant registered",
		zap.String("tenant_id", t.ID.String()),
		zap.String("subdomain", subdomain),
		zap.String("tier", string(tier)))
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.store.GetByID(ctx, id)
}

// SubdomainAvailable reports whether subdomain passes validation and is unused.
func (s *Service) SubdomainAvailable(ctx context.Context, subdomain string) (bool, error) {
	normalized, err := ValidateSubdomain(subdomain)
	if err != nil {
		return false, err
	}
	_, err = s.store.GetBySubdomain(ctx, normalized)
	if errors.Is(err, ErrTenantNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, t.Subdomain)
	}
	s.log.Info("tenant status changed",
		zap.String("tenant_id", id.String()),
		zap.Bool("active", active))
	return nil
}
