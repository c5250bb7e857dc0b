package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/metrics"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

const ResourceProjectsAndTasks = "projects+tasks"

var ErrQuotaExceeded = errors.New("quota exceeded")

// ExceededError carries the usage that tripped the limit.
type ExceededError struct {
	TenantID uuid.UUID
	Resource string
	Usage    int64
	Limit    int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: current usage %d, limit %d", e.Resource, e.Usage, e.Limit)
}

func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

type TenantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// UsageCounter counts committed resources owned by a tenant.
type UsageCounter interface {
	CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountTasks(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type Enforcer struct {
	tenants TenantGetter
	usage   UsageCounter
	log     *zap.Logger
}

func NewEnforcer(tenants TenantGetter, usage UsageCounter, log *zap.Logger) *Enforcer {
	return &Enforcer{tenants: tenants, usage: usage, log: log}
}

// Enforce fails with *ExceededError once combined usage reaches the limit.
// Usage equal to the limit is already over quota. Counts are read without
// locking, so concurrent creators near the limit can overshoot it.
func (e *Enforcer) Enforce(ctx context.Context, tenantID uuid.UUID) error {
	t, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("enforce quota: %w", err)
	}

	if t.QuotaLimit == nil {
		metrics.QuotaChecks.WithLabelValues("unlimited").Inc()
		return nil
	}

	used, err := e.combinedUsage(ctx, tenantID)
	if err != nil {
		return err
	}

	limit := int64(*t.QuotaLimit)
	if used >= limit {
		metrics.QuotaChecks.WithLabelValues("exceeded").Inc()
		e.log.Warn("quota exceeded",
			zap.String("tenant_id", tenantID.String()),
			zap.Int64("usage", used),
			zap.Int64("limit", limit))
		return &ExceededError{
			TenantID: tenantID,
			Resource: ResourceProjectsAndTasks,
			Usage:    used,
			Limit:    limit,
		}
	}

	metrics.QuotaChecks.WithLabelValues("allowed").Inc()
	return nil
}

// Usage reports current consumption without enforcing anything.
func (e *Enforcer) Usage(ctx context.Context, tenantID uuid.UUID) (*models.TenantUsage, error) {
	t, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant usage: %w", err)
	}

	projects, err := e.usage.CountProjects(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	tasks, err := e.usage.CountTasks(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	u := &models.TenantUsage{
		TenantID:     tenantID,
		ProjectCount: projects,
		TaskCount:    tasks,
		TotalUsage:   projects + tasks,
		Unlimited:    t.QuotaLimit == nil,
	}
	if t.QuotaLimit != nil {
		limit := int64(*t.QuotaLimit)
		remaining := limit - u.TotalUsage
		if remaining < 0 {
			remaining = 0
		}
		u.QuotaLimit = &limit
		u.Remaining = &remaining
	}
	return u, nil
}

func (e *Enforcer) combinedUsage(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	projects, err := e.usage.CountProjects(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	tasks, err := e.usage.CountTasks(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return projects + tasks, nil
}
