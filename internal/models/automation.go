package models

import (
	"time"

	"github.com/google/uuid"
)

// AutomationRule maps an event type (plus optional conditions) to an action.
// IsActive and ExecutionCount are pointers so an unset value can be told
// apart from an explicit false or zero.
type AutomationRule struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenantId" db:"tenant_id"`
	Name           string         `json:"name" db:"name"`
	Description    string         `json:"description,omitempty" db:"description"`
	EventType      string         `json:"eventType" db:"event_type"`
	ActionType     string         `json:"actionType" db:"action_type"`
	Conditions     map[string]any `json:"conditions,omitempty" db:"conditions"`
	ActionConfig   map[string]any `json:"actionConfig,omitempty" db:"action_config"`
	IsActive       *bool          `json:"isActive" db:"is_active"`
	ExecutionCount *uint64        `json:"executionCount" db:"execution_count"`
	LastExecutedAt *time.Time     `json:"lastExecutedAt,omitempty" db:"last_executed_at"`
	CreatedBy      *uuid.UUID     `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

func (r *AutomationRule) Active() bool {
	return r.IsActive != nil && *r.IsActive
}

func (r *AutomationRule) Executions() uint64 {
	if r.ExecutionCount == nil {
		return 0
	}
	return *r.ExecutionCount
}

type ExecutionStatus string

const (
	StatusSuccess        ExecutionStatus = "SUCCESS"
	StatusFailed         ExecutionStatus = "FAILED"
	StatusSkipped        ExecutionStatus = "SKIPPED"
	StatusNoRulesMatched ExecutionStatus = "NO_RULES_MATCHED"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusNoRulesMatched:
		return true
	}
	return false
}

// EventLog is an append-only record of one publish or rule execution attempt.
type EventLog struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	TenantID            uuid.UUID       `json:"tenantId" db:"tenant_id"`
	AutomationRuleID    *uuid.UUID      `json:"automationRuleId,omitempty" db:"automation_rule_id"`
	EventType           string          `json:"eventType" db:"event_type"`
	ResourceID          uuid.UUID       `json:"resourceId" db:"resource_id"`
	ResourceType        string          `json:"resourceType" db:"resource_type"`
	EventPayload        map[string]any  `json:"eventPayload,omitempty" db:"event_payload"`
	ActionType          string          `json:"actionType,omitempty" db:"action_type"`
	ActionResult        map[string]any  `json:"actionResult,omitempty" db:"action_result"`
	Status              ExecutionStatus `json:"status" db:"status"`
	ExecutionDurationMs int64           `json:"executionDurationMs" db:"execution_duration_ms"`
	ErrorMessage        *string         `json:"errorMessage,omitempty" db:"error_message"`
	ErrorStackTrace     *string         `json:"errorStackTrace,omitempty" db:"error_stack_trace"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
}

// AutomationStats aggregates rule and execution counters for one tenant.
type AutomationStats struct {
	TotalRules          int64   `json:"totalRules"`
	SuccessCount        int64   `json:"successCount"`
	FailedCount         int64   `json:"failedCount"`
	SkippedCount        int64   `json:"skippedCount"`
	NoRulesMatchedCount int64   `json:"noRulesMatchedCount"`
	AverageDurationMs   float64 `json:"averageExecutionDurationMs"`
}
