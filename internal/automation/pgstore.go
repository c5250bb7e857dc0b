package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

const ruleColumns = `id, tenant_id, name, description, event_type, action_type, conditions, action_config,
	is_active, execution_count, last_executed_at, created_by, created_at, updated_at`

const logColumns = `id, tenant_id, automation_rule_id, event_type, resource_id, resource_type, event_payload,
	action_type, action_result, status, execution_duration_ms, error_message, error_stack_trace, created_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateRule(ctx context.Context, r *models.AutomationRule) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO automation_rules
		   (tenant_id, name, description, event_type, action_type, conditions, action_config,
		    is_active, execution_count, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		r.TenantID, r.Name, r.Description, r.EventType, r.ActionType, r.Conditions, r.ActionConfig,
		r.Active(), int64(r.Executions()), r.CreatedBy,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert automation rule: %w", err)
	}
	return nil
}

func (s *PGStore) GetRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error) {
	row := s.db.QueryRow(ctx, "SELECT "+ruleColumns+" FROM automation_rules WHERE id = $1", id)
	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("get automation rule: %w", err)
	}
	return r, nil
}

func (s *PGStore) UpdateRule(ctx context.Context, r *models.AutomationRule) error {
	err := s.db.QueryRow(ctx,
		`UPDATE automation_rules
		 SET name = $2, description = $3, event_type = $4, action_type = $5,
		     conditions = $6, action_config = $7, is_active = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		r.ID, r.Name, r.Description, r.EventType, r.ActionType, r.Conditions, r.ActionConfig, r.Active(),
	).Scan(&r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("update automation rule: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM automation_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete automation rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (s *PGStore) ListRules(ctx context.Context, f RuleFilter) ([]models.AutomationRule, error) {
	query := "SELECT " + ruleColumns + " FROM automation_rules WHERE tenant_id = $1"
	args := []any{f.TenantID}
	argIdx := 2

	if f.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	if f.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, f.EventType)
		argIdx++
	}
	if f.ActionType != "" {
		query += fmt.Sprintf(" AND action_type = $%d", argIdx)
		args = append(args, f.ActionType)
		argIdx++
	}
	query += " ORDER BY created_at DESC"

	return s.queryRules(ctx, query, args...)
}

func (s *PGStore) TopExecutedRules(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.AutomationRule, error) {
	return s.queryRules(ctx,
		"SELECT "+ruleColumns+` FROM automation_rules WHERE tenant_id = $1
		 ORDER BY execution_count DESC, name ASC LIMIT $2`,
		tenantID, limit)
}

func (s *PGStore) CountRules(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM automation_rules WHERE tenant_id = $1", tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count automation rules: %w", err)
	}
	return n, nil
}

func (s *PGStore) RecordExecution(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE automation_rules
		 SET execution_count = execution_count + 1, last_executed_at = $2, updated_at = now()
		 WHERE id = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("record rule execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (s *PGStore) queryRules(ctx context.Context, query string, args ...any) ([]models.AutomationRule, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query automation rules: %w", err)
	}
	defer rows.Close()

	rules := []models.AutomationRule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan automation rule: %w", err)
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

func scanRule(row pgx.Row) (*models.AutomationRule, error) {
	var (
		r      models.AutomationRule
		active bool
		count  int64
	)
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Description, &r.EventType, &r.ActionType,
		&r.Conditions, &r.ActionConfig, &active, &count, &r.LastExecutedAt, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	executions := uint64(count)
	r.IsActive = &active
	r.ExecutionCount = &executions
	return &r, nil
}

func (s *PGStore) CreateEventLog(ctx context.Context, l *models.EventLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO event_logs
		   (tenant_id, automation_rule_id, event_type, resource_id, resource_type, event_payload,
		    action_type, action_result, status, execution_duration_ms, error_message, error_stack_trace, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		l.TenantID, l.AutomationRuleID, l.EventType, l.ResourceID, l.ResourceType, l.EventPayload,
		l.ActionType, l.ActionResult, l.Status, l.ExecutionDurationMs, l.ErrorMessage, l.ErrorStackTrace, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func (s *PGStore) ListEventLogs(ctx context.Context, f LogFilter) ([]models.EventLog, error) {
	query := "SELECT " + logColumns + " FROM event_logs WHERE tenant_id = $1"
	args := []any{f.TenantID}
	argIdx := 2

	if f.RuleID != nil {
		query += fmt.Sprintf(" AND automation_rule_id = $%d", argIdx)
		args = append(args, *f.RuleID)
		argIdx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Start != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *f.Start)
		argIdx++
	}
	if f.End != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *f.End)
		argIdx++
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event logs: %w", err)
	}
	defer rows.Close()

	logs := []models.EventLog{}
	for rows.Next() {
		var l models.EventLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.AutomationRuleID, &l.EventType, &l.ResourceID,
			&l.ResourceType, &l.EventPayload, &l.ActionType, &l.ActionResult, &l.Status,
			&l.ExecutionDurationMs, &l.ErrorMessage, &l.ErrorStackTrace, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *PGStore) CountEventLogs(ctx context.Context, tenantID uuid.UUID, status models.ExecutionStatus) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_logs WHERE tenant_id = $1 AND status = $2", tenantID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count event logs: %w", err)
	}
	return n, nil
}

func (s *PGStore) AverageExecutionDuration(ctx context.Context, tenantID uuid.UUID) (*float64, error) {
	var avg *float64
	err := s.db.QueryRow(ctx,
		"SELECT AVG(execution_duration_ms)::float8 FROM event_logs WHERE tenant_id = $1", tenantID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average execution duration: %w", err)
	}
	return avg, nil
}
