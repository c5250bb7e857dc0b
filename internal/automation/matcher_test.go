package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/actions"
	"github.com/nikhilbhutani/saasplatform/internal/events"
	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/queue"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

func dispatched(t *testing.T, tenantID uuid.UUID, eventType string, payload map[string]any) queue.AutomationEvaluatePayload {
	t.Helper()
	detail, err := events.EncodeDetail(events.Event{
		TenantID:     tenantID,
		Type:         eventType,
		ResourceID:   uuid.New(),
		ResourceType: "task",
		Payload:      payload,
	}, time.Now())
	require.NoError(t, err)
	return queue.AutomationEvaluatePayload{Source: events.Source, DetailType: eventType, Detail: detail}
}

func seedRule(t *testing.T, store *memStore, r models.AutomationRule) *models.AutomationRule {
	t.Helper()
	if r.IsActive == nil {
		r.IsActive = boolPtr(true)
	}
	require.NoError(t, store.CreateRule(context.Background(), &r))
	return &r
}

func logsByRule(store *memStore) map[uuid.UUID]models.EventLog {
	out := map[uuid.UUID]models.EventLog{}
	for _, l := range store.logs {
		if l.AutomationRuleID != nil {
			out[*l.AutomationRuleID] = l
		}
	}
	return out
}

func TestMatches(t *testing.T) {
	payload := map[string]any{"newStatus": "COMPLETED", "progress": float64(100)}

	assert.True(t, Matches(nil, payload))
	assert.True(t, Matches(map[string]any{"newStatus": "COMPLETED"}, payload))
	assert.True(t, Matches(map[string]any{"progress": 100}, payload))
	assert.False(t, Matches(map[string]any{"newStatus": "TODO"}, payload))
	assert.False(t, Matches(map[string]any{"missing": "x"}, payload))
}

func TestMatcherRunsMatchingRulesAndLogsOutcome(t *testing.T) {
	store := newMemStore()
	tenantID := uuid.New()

	var (
		seenTenant uuid.UUID
		calls      int
	)
	reg := actions.NewRegistry()
	reg.Register("notify", actions.RunnerFunc(func(ctx context.Context, inv actions.Invocation) (map[string]any, error) {
		calls++
		seenTenant = tenant.IDFromContext(ctx)
		return map[string]any{"ok": true}, nil
	}))
	reg.Register("broken", actions.RunnerFunc(func(context.Context, actions.Invocation) (map[string]any, error) {
		return nil, errors.New("downstream unavailable")
	}))

	ok := seedRule(t, store, models.AutomationRule{TenantID: tenantID, Name: "ok",
		EventType: events.TaskStatusChanged, ActionType: "notify",
		Conditions: map[string]any{"newStatus": "COMPLETED"}})
	skipped := seedRule(t, store, models.AutomationRule{TenantID: tenantID, Name: "skip",
		EventType: events.TaskStatusChanged, ActionType: "notify",
		Conditions: map[string]any{"newStatus": "TODO"}})
	failed := seedRule(t, store, models.AutomationRule{TenantID: tenantID, Name: "fail",
		EventType: events.TaskStatusChanged, ActionType: "broken"})
	unknown := seedRule(t, store, models.AutomationRule{TenantID: tenantID, Name: "unknown",
		EventType: events.TaskStatusChanged, ActionType: "send_email"})
	seedRule(t, store, models.AutomationRule{TenantID: tenantID, Name: "inactive",
		EventType: events.TaskStatusChanged, ActionType: "notify", IsActive: boolPtr(false)})
	seedRule(t, store, models.AutomationRule{TenantID: uuid.New(), Name: "other tenant",
		EventType: events.TaskStatusChanged, ActionType: "notify"})

	m := NewMatcher(store, reg, zap.NewNop())
	err := m.Handle(context.Background(), dispatched(t, tenantID, events.TaskStatusChanged,
		map[string]any{"oldStatus": "IN_PROGRESS", "newStatus": "COMPLETED"}))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, tenantID, seenTenant)
	require.Len(t, store.logs, 4)

	logs := logsByRule(store)
	assert.Equal(t, models.StatusSuccess, logs[ok.ID].Status)
	assert.Equal(t, map[string]any{"ok": true}, logs[ok.ID].ActionResult)
	assert.Equal(t, "notify", logs[ok.ID].ActionType)
	assert.Equal(t, models.StatusSkipped, logs[skipped.ID].Status)

	require.Equal(t, models.StatusFailed, logs[failed.ID].Status)
	require.NotNil(t, logs[failed.ID].ErrorMessage)
	assert.Contains(t, *logs[failed.ID].ErrorMessage, "downstream unavailable")
	require.NotNil(t, logs[failed.ID].ErrorStackTrace)
	assert.LessOrEqual(t, len(*logs[failed.ID].ErrorStackTrace), events.MaxStackTraceLength+len("\n\t... (truncated)"))

	assert.Equal(t, models.StatusFailed, logs[unknown.ID].Status)
	assert.Contains(t, *logs[unknown.ID].ErrorMessage, "send_email")

	assert.Equal(t, 1, store.executed[ok.ID])
	assert.Zero(t, store.executed[skipped.ID])
	assert.Zero(t, store.executed[failed.ID])

	stored, err := store.GetRule(context.Background(), ok.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.Executions())
	assert.NotNil(t, stored.LastExecutedAt)
}

func TestMatcherWithoutRulesWritesNothing(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store, actions.NewRegistry(), zap.NewNop())

	err := m.Handle(context.Background(), dispatched(t, uuid.New(), events.ProjectCreated, nil))
	require.NoError(t, err)
	assert.Empty(t, store.logs)
}

func TestMatcherRejectsDetailWithoutTenant(t *testing.T) {
	m := NewMatcher(newMemStore(), actions.NewRegistry(), zap.NewNop())
	err := m.Handle(context.Background(), queue.AutomationEvaluatePayload{
		DetailType: events.TaskCreated,
		Detail:     `{"resourceType":"task"}`,
	})
	assert.Error(t, err)
}
