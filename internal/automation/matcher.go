package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/actions"
	"github.com/nikhilbhutani/saasplatform/internal/events"
	"github.com/nikhilbhutani/saasplatform/internal/metrics"
	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/queue"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

// Matcher evaluates forwarded events against the tenant's active rules and
// runs the configured action for each rule that matches.
type Matcher struct {
	store   Store
	runners *actions.Registry
	log     *zap.Logger
	now     func() time.Time
}

func NewMatcher(store Store, runners *actions.Registry, log *zap.Logger) *Matcher {
	return &Matcher{
		store:   store,
		runners: runners,
		log:     log,
		now:     time.Now,
	}
}

// Handle processes one dispatched event. Rule failures are written to the
// event log; only decode and rule lookup errors are returned.
func (m *Matcher) Handle(ctx context.Context, p queue.AutomationEvaluatePayload) error {
	d, err := events.DecodeDetail(p.Detail)
	if err != nil {
		return err
	}
	ctx = tenant.WithTenant(ctx, tenant.Info{ID: d.TenantID})

	rules, err := m.store.ListRules(ctx, RuleFilter{
		TenantID:   d.TenantID,
		ActiveOnly: true,
		EventType:  p.DetailType,
	})
	if err != nil {
		return fmt.Errorf("list rules for %s: %w", p.DetailType, err)
	}
	if len(rules) == 0 {
		m.log.Debug("no automation rules for event",
			zap.String("tenant_id", d.TenantID.String()),
			zap.String("event_type", p.DetailType))
		return nil
	}

	for i := range rules {
		m.execute(ctx, &rules[i], p.DetailType, d)
	}
	return nil
}

func (m *Matcher) execute(ctx context.Context, rule *models.AutomationRule, eventType string, d events.Detail) {
	start := m.now()
	ruleID := rule.ID
	rec := &models.EventLog{
		TenantID:         d.TenantID,
		AutomationRuleID: &ruleID,
		EventType:        eventType,
		ResourceID:       d.ResourceID,
		ResourceType:     d.ResourceType,
		EventPayload:     d.Payload,
		ActionType:       rule.ActionType,
		CreatedAt:        start,
	}

	switch {
	case !Matches(rule.Conditions, d.Payload):
		rec.Status = models.StatusSkipped

	default:
		runner, ok := m.runners.Lookup(rule.ActionType)
		if !ok {
			failLog(rec, errors.Errorf("no runner for action type %q", rule.ActionType))
			break
		}
		result, err := runner.Run(ctx, actions.Invocation{
			TenantID:     d.TenantID,
			RuleID:       rule.ID,
			RuleName:     rule.Name,
			EventType:    eventType,
			ResourceID:   d.ResourceID,
			ResourceType: d.ResourceType,
			Payload:      d.Payload,
			Config:       rule.ActionConfig,
		})
		rec.ActionResult = result
		if err != nil {
			failLog(rec, errors.Wrapf(err, "run %s action", rule.ActionType))
			break
		}
		rec.Status = models.StatusSuccess
		if err := m.store.RecordExecution(ctx, rule.ID, start); err != nil {
			m.log.Warn("failed to record rule execution",
				zap.String("rule_id", rule.ID.String()),
				zap.Error(err))
		}
	}

	if ms := m.now().Sub(start).Milliseconds(); ms > 0 {
		rec.ExecutionDurationMs = ms
	}

	m.log.Info("automation rule evaluated",
		zap.String("tenant_id", d.TenantID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("event_type", eventType),
		zap.String("status", string(rec.Status)))
	metrics.RuleExecutions.WithLabelValues(rule.ActionType, string(rec.Status)).Inc()

	if err := m.store.CreateEventLog(context.WithoutCancel(ctx), rec); err != nil {
		m.log.Error("failed to record rule evaluation",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err))
	}
}

// Matches reports whether every condition equals the payload value under
// the same key. Values are compared by their printed form; an empty
// condition set always matches.
func Matches(conditions, payload map[string]any) bool {
	for k, want := range conditions {
		got, ok := payload[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func failLog(rec *models.EventLog, err error) {
	msg := err.Error()
	trace := events.TruncateTrace(fmt.Sprintf("%+v", err))
	rec.Status = models.StatusFailed
	rec.ErrorMessage = &msg
	rec.ErrorStackTrace = &trace
}
