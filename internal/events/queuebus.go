package events

import (
	"context"

	"github.com/nikhilbhutani/saasplatform/internal/queue"
)

type Enqueuer interface {
	EnqueueAutomationEvaluate(ctx context.Context, payload queue.AutomationEvaluatePayload) error
}

// QueueBus hands entries to the local automation worker.
type QueueBus struct {
	q Enqueuer
}

func NewQueueBus(q Enqueuer) *QueueBus {
	return &QueueBus{q: q}
}

func (b *QueueBus) Put(ctx context.Context, e Entry) (PutResult, error) {
	err := b.q.EnqueueAutomationEvaluate(ctx, queue.AutomationEvaluatePayload{
		Source:     e.Source,
		DetailType: e.DetailType,
		Detail:     e.Detail,
	})
	if err != nil {
		return PutResult{}, err
	}
	return PutResult{}, nil
}
