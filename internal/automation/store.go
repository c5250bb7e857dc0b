package automation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

var (
	ErrRuleNotFound        = errors.New("automation rule not found")
	ErrTenantContextNotSet = tenant.ErrContextNotSet
)

type RuleFilter struct {
	TenantID   uuid.UUID
	ActiveOnly bool
	EventType  string
	ActionType string
}

// LogFilter selects event logs for one tenant, newest first.
type LogFilter struct {
	TenantID uuid.UUID
	RuleID   *uuid.UUID
	Status   models.ExecutionStatus
	Start    *time.Time
	End      *time.Time
	Limit    int
}

type RuleStore interface {
	CreateRule(ctx context.Context, rule *models.AutomationRule) error
	// GetRule looks up by id alone; callers enforce tenant ownership.
	GetRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error)
	UpdateRule(ctx context.Context, rule *models.AutomationRule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
	ListRules(ctx context.Context, f RuleFilter) ([]models.AutomationRule, error)
	TopExecutedRules(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.AutomationRule, error)
	CountRules(ctx context.Context, tenantID uuid.UUID) (int64, error)
	RecordExecution(ctx context.Context, id uuid.UUID, at time.Time) error
}

type LogStore interface {
	CreateEventLog(ctx context.Context, log *models.EventLog) error
	ListEventLogs(ctx context.Context, f LogFilter) ([]models.EventLog, error)
	CountEventLogs(ctx context.Context, tenantID uuid.UUID, status models.ExecutionStatus) (int64, error)
	// AverageExecutionDuration returns nil when the tenant has no logs.
	AverageExecutionDuration(ctx context.Context, tenantID uuid.UUID) (*float64, error)
}

type Store interface {
	RuleStore
	LogStore
}
