package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const natsFlushTimeout = 5 * time.Second

// NATSBus publishes entries on <prefix>.<tenantId>.<detailType>.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
}

func DialNATS(url, prefix string, log *zap.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("saas-event-publisher"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSBus{conn: nc, prefix: prefix}, nil
}

func Subject(prefix string, e Entry) string {
	return fmt.Sprintf("%s.%s.%s", prefix, e.TenantID, e.DetailType)
}

func (b *NATSBus) Put(ctx context.Context, e Entry) (PutResult, error) {
	msg := nats.NewMsg(Subject(b.prefix, e))
	msg.Data = []byte(e.Detail)
	msg.Header.Set("Event-Source", e.Source)
	msg.Header.Set("Event-Bus", e.EventBusName)
	msg.Header.Set("Detail-Type", e.DetailType)

	if err := b.conn.PublishMsg(msg); err != nil {
		return PutResult{}, fmt.Errorf("nats publish: %w", err)
	}
	fctx, cancel := context.WithTimeout(ctx, natsFlushTimeout)
	defer cancel()
	if err := b.conn.FlushWithContext(fctx); err != nil {
		return PutResult{}, fmt.Errorf("nats flush: %w", err)
	}
	return PutResult{}, nil
}

func (b *NATSBus) Close() error {
	return b.conn.Drain()
}
