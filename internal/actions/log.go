package actions

import (
	"context"

	"go.uber.org/zap"
)

// NewLogRunner returns a runner that only writes the invocation to the
// process log. Useful for dry-running rules.
func NewLogRunner(log *zap.Logger) Runner {
	return RunnerFunc(func(_ context.Context, inv Invocation) (map[string]any, error) {
		log.Info("automation rule fired",
			zap.String("tenant_id", inv.TenantID.String()),
			zap.String("rule_id", inv.RuleID.String()),
			zap.String("rule_name", inv.RuleName),
			zap.String("event_type", inv.EventType),
			zap.String("resource_id", inv.ResourceID.String()),
			zap.Any("payload", inv.Payload))
		return map[string]any{"logged": true}, nil
	})
}
