package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

const (
	defaultRecentLogs  = 50
	defaultTopExecuted = 10
)

// RulePatch is a partial update. Nil fields are left untouched; non-nil
// maps replace the stored map wholesale.
type RulePatch struct {
	Name         *string        `json:"name" validate:"omitempty,min=1,max=255"`
	Description  *string        `json:"description"`
	EventType    *string        `json:"eventType" validate:"omitempty,min=1,max=100"`
	ActionType   *string        `json:"actionType" validate:"omitempty,min=1,max=50"`
	Conditions   map[string]any `json:"conditions"`
	ActionConfig map[string]any `json:"actionConfig"`
	IsActive     *bool          `json:"isActive"`
}

// Service manages automation rules and their execution logs. Every
// operation is scoped to the tenant reported by the provider.
type Service struct {
	store   Store
	tenants tenant.Provider
	log     *zap.Logger
}

func NewService(store Store, tenants tenant.Provider, log *zap.Logger) *Service {
	return &Service{store: store, tenants: tenants, log: log}
}

func (s *Service) currentTenant(ctx context.Context) (uuid.UUID, error) {
	id, ok := s.tenants.TenantID(ctx)
	if !ok {
		return uuid.Nil, ErrTenantContextNotSet
	}
	return id, nil
}

func (s *Service) CreateRule(ctx context.Context, rule *models.AutomationRule) (*models.AutomationRule, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}

	rule.TenantID = tenantID
	if rule.IsActive == nil {
		active := true
		rule.IsActive = &active
	}
	if rule.ExecutionCount == nil {
		var zero uint64
		rule.ExecutionCount = &zero
	}
	if u, ok := tenant.UserFromContext(ctx); ok && rule.CreatedBy == nil {
		rule.CreatedBy = &u.UserID
	}

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("create automation rule: %w", err)
	}

	s.log.Info("automation rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("event_type", rule.EventType))
	return rule, nil
}

// ownedRule loads a rule by id and hides rules of other tenants behind
// the same error as a missing rule.
func (s *Service) ownedRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error) {
	tenantID, ok := s.tenants.TenantID(ctx)

	rule, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok || rule.TenantID != tenantID {
		s.log.Warn("automation rule requested outside its tenant",
			zap.String("rule_id", id.String()),
			zap.String("tenant_id", tenantID.String()))
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error) {
	return s.ownedRule(ctx, id)
}

func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, patch RulePatch) (*models.AutomationRule, error) {
	rule, err := s.ownedRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		rule.Name = *patch.Name
	}
	if patch.Description != nil {
		rule.Description = *patch.Description
	}
	if patch.EventType != nil {
		rule.EventType = *patch.EventType
	}
	if patch.ActionType != nil {
		rule.ActionType = *patch.ActionType
	}
	if patch.Conditions != nil {
		rule.Conditions = patch.Conditions
	}
	if patch.ActionConfig != nil {
		rule.ActionConfig = patch.ActionConfig
	}
	if patch.IsActive != nil {
		active := *patch.IsActive
		rule.IsActive = &active
	}

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("update automation rule: %w", err)
	}
	s.log.Info("automation rule updated", zap.String("rule_id", id.String()))
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ownedRule(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete automation rule: %w", err)
	}
	s.log.Info("automation rule deleted", zap.String("rule_id", id.String()))
	return nil
}

func (s *Service) ToggleRuleStatus(ctx context.Context, id uuid.UUID, active bool) (*models.AutomationRule, error) {
	return s.UpdateRule(ctx, id, RulePatch{IsActive: &active})
}

func (s *Service) GetAllRules(ctx context.Context) ([]models.AutomationRule, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListRules(ctx, RuleFilter{TenantID: tenantID})
}

func (s *Service) GetActiveRules(ctx context.Context) ([]models.AutomationRule, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListRules(ctx, RuleFilter{TenantID: tenantID, ActiveOnly: true})
}

// GetRulesByEventType returns the active rules listening for eventType.
func (s *Service) GetRulesByEventType(ctx context.Context, eventType string) ([]models.AutomationRule, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListRules(ctx, RuleFilter{TenantID: tenantID, ActiveOnly: true, EventType: eventType})
}

func (s *Service) GetTopExecutedRules(ctx context.Context, limit int) ([]models.AutomationRule, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopExecuted
	}
	return s.store.TopExecutedRules(ctx, tenantID, limit)
}

func (s *Service) CountRules(ctx context.Context) (int64, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return 0, err
	}
	return s.store.CountRules(ctx, tenantID)
}

func (s *Service) GetRecentLogs(ctx context.Context, limit int) ([]models.EventLog, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLogs
	}
	return s.store.ListEventLogs(ctx, LogFilter{TenantID: tenantID, Limit: limit})
}

func (s *Service) GetLogsForRule(ctx context.Context, ruleID uuid.UUID) ([]models.EventLog, error) {
	rule, err := s.ownedRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return s.store.ListEventLogs(ctx, LogFilter{TenantID: rule.TenantID, RuleID: &rule.ID})
}

func (s *Service) GetFailedLogs(ctx context.Context) ([]models.EventLog, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListEventLogs(ctx, LogFilter{TenantID: tenantID, Status: models.StatusFailed})
}

// GetLogsByDateRange returns logs created within [start, end], newest first.
func (s *Service) GetLogsByDateRange(ctx context.Context, start, end time.Time) ([]models.EventLog, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return s.store.ListEventLogs(ctx, LogFilter{TenantID: tenantID, Start: &start, End: &end})
}

func (s *Service) CountLogsByStatus(ctx context.Context, status models.ExecutionStatus) (int64, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return 0, err
	}
	if !status.Valid() {
		return 0, fmt.Errorf("unknown execution status %q", status)
	}
	return s.store.CountEventLogs(ctx, tenantID, status)
}

// GetAverageExecutionDuration returns 0 when nothing has been logged yet.
func (s *Service) GetAverageExecutionDuration(ctx context.Context) (float64, error) {
	tenantID, err := s.currentTenant(ctx)
	if err != nil {
		return 0, err
	}
	avg, err := s.store.AverageExecutionDuration(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0.0, nil
	}
	return *avg, nil
}

func (s *Service) Stats(ctx context.Context) (*models.AutomationStats, error) {
	total, err := s.CountRules(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.AutomationStats{TotalRules: total}
	counts := []struct {
		status models.ExecutionStatus
		dst    *int64
	}{
		{models.StatusSuccess, &stats.SuccessCount},
		{models.StatusFailed, &stats.FailedCount},
		{models.StatusSkipped, &stats.SkippedCount},
		{models.StatusNoRulesMatched, &stats.NoRulesMatchedCount},
	}
	for _, c := range counts {
		n, err := s.CountLogsByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	stats.AverageDurationMs, err = s.GetAverageExecutionDuration(ctx)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
