package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeBus forwards entries to an AWS EventBridge event bus.
type EventBridgeBus struct {
	client EventBridgeAPI
}

func NewEventBridgeBus(client EventBridgeAPI) *EventBridgeBus {
	return &EventBridgeBus{client: client}
}

// DialEventBridge builds a client from the default AWS credential chain.
func DialEventBridge(ctx context.Context, region string) (*EventBridgeBus, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewEventBridgeBus(eventbridge.NewFromConfig(cfg)), nil
}

func (b *EventBridgeBus) Put(ctx context.Context, e Entry) (PutResult, error) {
	out, err := b.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(e.EventBusName),
			Source:       aws.String(e.Source),
			DetailType:   aws.String(e.DetailType),
			Detail:       aws.String(e.Detail),
			Time:         aws.Time(e.Time),
		}},
	})
	if err != nil {
		return PutResult{}, err
	}

	res := PutResult{FailedEntryCount: int(out.FailedEntryCount)}
	for _, entry := range out.Entries {
		if entry.ErrorCode != nil || entry.ErrorMessage != nil {
			res.ErrorCode = aws.ToString(entry.ErrorCode)
			res.ErrorMessage = aws.ToString(entry.ErrorMessage)
			break
		}
	}
	return res, nil
}
