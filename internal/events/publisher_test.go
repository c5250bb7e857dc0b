package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type recordingStore struct {
	mu      sync.Mutex
	saved   []*models.EventLog
	failN   int // fail the first failN saves
	attempt int
}

func (s *recordingStore) CreateEventLog(_ context.Context, l *models.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt++
	if s.attempt <= s.failN {
		return errors.New("insert event log: connection reset")
	}
	s.saved = append(s.saved, l)
	return nil
}

type panickingStore struct{}

func (panickingStore) CreateEventLog(context.Context, *models.EventLog) error {
	panic("driver bug")
}

type fakeBus struct {
	entries []Entry
	result  PutResult
	err     error
}

func (b *fakeBus) Put(_ context.Context, e Entry) (PutResult, error) {
	b.entries = append(b.entries, e)
	return b.result, b.err
}

func sampleEvent() Event {
	return Event{
		TenantID:     uuid.New(),
		Type:         TaskStatusChanged,
		ResourceID:   uuid.New(),
		ResourceType: "task",
		Payload:      map[string]any{"oldStatus": "TODO", "newStatus": "IN_PROGRESS"},
	}
}

func TestPublishWithoutBusRecordsNoRulesMatched(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store, nil, "default", zap.NewNop())
	ev := sampleEvent()

	p.Publish(context.Background(), ev)

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	assert.Equal(t, models.StatusNoRulesMatched, rec.Status)
	assert.Equal(t, ev.TenantID, rec.TenantID)
	assert.Equal(t, ev.Type, rec.EventType)
	assert.Equal(t, ev.ResourceID, rec.ResourceID)
	assert.Equal(t, "task", rec.ResourceType)
	assert.Nil(t, rec.AutomationRuleID)
	assert.Nil(t, rec.ErrorMessage)
	assert.GreaterOrEqual(t, rec.ExecutionDurationMs, int64(0))
}

func TestPublishForwardsEntryToBus(t *testing.T) {
	store := &recordingStore{}
	bus := &fakeBus{}
	p := NewPublisher(store, bus, "platform-bus", zap.NewNop())
	ev := sampleEvent()

	p.Publish(context.Background(), ev)

	require.Len(t, bus.entries, 1)
	entry := bus.entries[0]
	assert.Equal(t, "platform-bus", entry.EventBusName)
	assert.Equal(t, Source, entry.Source)
	assert.Equal(t, ev.Type, entry.DetailType)

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(entry.Detail), &detail))
	assert.Equal(t, ev.TenantID.String(), detail["tenantId"])
	assert.Equal(t, ev.ResourceID.String(), detail["resourceId"])
	assert.Equal(t, "task", detail["resourceType"])
	assert.Equal(t, map[string]any{"oldStatus": "TODO", "newStatus": "IN_PROGRESS"}, detail["payload"])

	require.Len(t, store.saved, 1)
	assert.Equal(t, models.StatusNoRulesMatched, store.saved[0].Status)
}

func TestPublishFailedEntryMarksLogFailed(t *testing.T) {
	store := &recordingStore{}
	bus := &fakeBus{result: PutResult{FailedEntryCount: 1, ErrorCode: "InternalFailure", ErrorMessage: "bus throttled"}}
	p := NewPublisher(store, bus, "default", zap.NewNop())

	p.Publish(context.Background(), sampleEvent())

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	assert.Equal(t, models.StatusFailed, rec.Status)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "bus throttled")
	require.NotNil(t, rec.ErrorStackTrace)
	assert.LessOrEqual(t, len(*rec.ErrorStackTrace), MaxStackTraceLength+len(truncatedMarker))
}

func TestPublishTransportErrorMarksLogFailed(t *testing.T) {
	store := &recordingStore{}
	bus := &fakeBus{err: errors.New("dial tcp: i/o timeout")}
	p := NewPublisher(store, bus, "default", zap.NewNop())

	assert.NotPanics(t, func() { p.Publish(context.Background(), sampleEvent()) })

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	assert.Equal(t, models.StatusFailed, rec.Status)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "i/o timeout")
	assert.Contains(t, *rec.ErrorMessage, "publish to event bus")
	require.NotNil(t, rec.ErrorStackTrace)
	assert.Contains(t, *rec.ErrorStackTrace, "i/o timeout")
}

func TestPublishSaveFailureWritesFallbackRecord(t *testing.T) {
	store := &recordingStore{failN: 1}
	p := NewPublisher(store, nil, "default", zap.NewNop())
	ev := sampleEvent()

	p.Publish(context.Background(), ev)

	assert.Equal(t, 2, store.attempt)
	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	assert.Equal(t, models.StatusFailed, rec.Status)
	assert.Equal(t, ev.TenantID, rec.TenantID)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "connection reset")
}

func TestPublishSwallowsSecondSaveFailure(t *testing.T) {
	store := &recordingStore{failN: 2}
	p := NewPublisher(store, nil, "default", zap.NewNop())

	assert.NotPanics(t, func() { p.Publish(context.Background(), sampleEvent()) })
	assert.Equal(t, 2, store.attempt)
	assert.Empty(t, store.saved)
}

func TestPublishRecoversFromPanics(t *testing.T) {
	p := NewPublisher(panickingStore{}, nil, "default", zap.NewNop())
	assert.NotPanics(t, func() { p.Publish(context.Background(), sampleEvent()) })
}

func TestPublishSurvivesCancelledContext(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store, nil, "default", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, sampleEvent())

	assert.Len(t, store.saved, 1)
}

func TestPublishMeasuresDuration(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store, nil, "default", zap.NewNop())

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	p.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 15 * time.Millisecond)
	}

	p.Publish(context.Background(), sampleEvent())

	require.Len(t, store.saved, 1)
	assert.Equal(t, int64(15), store.saved[0].ExecutionDurationMs)
	assert.Equal(t, base, store.saved[0].CreatedAt)
}

func TestPublishConcurrentCallers(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store, nil, "default", zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Publish(context.Background(), sampleEvent())
		}()
	}
	wg.Wait()

	assert.Len(t, store.saved, 50)
	for _, rec := range store.saved {
		assert.False(t, strings.HasPrefix(string(rec.Status), "FAIL"))
	}
}
