package events

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/metrics"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

// Publisher records every domain event in the event log and, when a bus is
// configured, forwards it. Publish never fails the caller: bus and storage
// errors end up in the log record or in the process log.
type Publisher struct {
	store   LogStore
	bus     Bus
	busName string
	log     *zap.Logger
	now     func() time.Time
}

// NewPublisher builds a publisher. A nil bus keeps events local.
func NewPublisher(store LogStore, bus Bus, busName string, log *zap.Logger) *Publisher {
	return &Publisher{
		store:   store,
		bus:     bus,
		busName: busName,
		log:     log,
		now:     time.Now,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("event publish panicked",
				zap.String("event_type", ev.Type),
				zap.String("tenant_id", ev.TenantID.String()),
				zap.Any("panic", r))
		}
	}()

	start := p.now()
	// Log writes must outlive a cancelled request.
	storeCtx := context.WithoutCancel(ctx)

	rec := &models.EventLog{
		TenantID:     ev.TenantID,
		EventType:    ev.Type,
		ResourceID:   ev.ResourceID,
		ResourceType: ev.ResourceType,
		EventPayload: ev.Payload,
		Status:       models.StatusNoRulesMatched,
		CreatedAt:    start,
	}

	if p.bus != nil {
		if err := p.forward(ctx, ev, start); err != nil {
			p.log.Warn("event bus publish failed",
				zap.String("event_type", ev.Type),
				zap.String("tenant_id", ev.TenantID.String()),
				zap.Error(err))
			markFailed(rec, err)
		} else {
			p.log.Info("event published to bus",
				zap.String("event_type", ev.Type),
				zap.String("tenant_id", ev.TenantID.String()))
		}
	} else {
		p.log.Debug("event logged locally",
			zap.String("event_type", ev.Type),
			zap.String("tenant_id", ev.TenantID.String()))
	}

	rec.ExecutionDurationMs = p.elapsedMs(start)

	if err := p.store.CreateEventLog(storeCtx, rec); err != nil {
		saveErr := errors.Wrap(err, "save event log")
		p.log.Error("failed to record event",
			zap.String("event_type", ev.Type),
			zap.String("tenant_id", ev.TenantID.String()),
			zap.Error(saveErr))

		fallback := &models.EventLog{
			TenantID:            ev.TenantID,
			EventType:           ev.Type,
			ResourceID:          ev.ResourceID,
			ResourceType:        ev.ResourceType,
			EventPayload:        ev.Payload,
			ExecutionDurationMs: p.elapsedMs(start),
			CreatedAt:           p.now(),
		}
		markFailed(fallback, saveErr)

		if err := p.store.CreateEventLog(storeCtx, fallback); err != nil {
			p.log.Error("failed to record event failure",
				zap.String("event_type", ev.Type),
				zap.String("tenant_id", ev.TenantID.String()),
				zap.Error(err))
		}
		metrics.EventsPublished.WithLabelValues(ev.Type, string(models.StatusFailed)).Inc()
		return
	}

	metrics.EventsPublished.WithLabelValues(ev.Type, string(rec.Status)).Inc()
}

func (p *Publisher) forward(ctx context.Context, ev Event, at time.Time) error {
	detail, err := EncodeDetail(ev, at)
	if err != nil {
		return errors.Wrap(err, "encode event detail")
	}

	res, err := p.bus.Put(ctx, Entry{
		EventBusName: p.busName,
		Source:       Source,
		DetailType:   ev.Type,
		Detail:       detail,
		TenantID:     ev.TenantID,
		Time:         at,
	})
	if err != nil {
		return errors.Wrap(err, "publish to event bus")
	}
	if res.FailedEntryCount > 0 {
		return errors.Errorf("failed to publish event to event bus: %s", failureReason(res))
	}
	return nil
}

func (p *Publisher) elapsedMs(start time.Time) int64 {
	ms := p.now().Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func failureReason(res PutResult) string {
	switch {
	case res.ErrorMessage != "" && res.ErrorCode != "":
		return fmt.Sprintf("%s (%s)", res.ErrorMessage, res.ErrorCode)
	case res.ErrorMessage != "":
		return res.ErrorMessage
	case res.ErrorCode != "":
		return res.ErrorCode
	}
	return fmt.Sprintf("%d entries rejected", res.FailedEntryCount)
}

func markFailed(rec *models.EventLog, err error) {
	msg := err.Error()
	trace := TruncateTrace(fmt.Sprintf("%+v", err))
	rec.Status = models.StatusFailed
	rec.ErrorMessage = &msg
	rec.ErrorStackTrace = &trace
}
