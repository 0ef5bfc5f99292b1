package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-order-lifecycle/internal/aws"
)

// CloudWatch metric names emitted per order lifecycle event.
const (
	metricSuccessfulOrder = "SuccessfulOrder"
	metricOrderTotal      = "OrderTotal"
	metricCanceledOrder   = "CanceledOrder"
)

// Processor consumes order lifecycle events from SQS and turns them into
// CloudWatch metrics. It owns no order state.
type Processor struct {
	metrics *aws.MetricsPublisher
	log     *zap.Logger
}

// NewProcessor creates a worker processor with its collaborators injected.
func NewProcessor(metrics *aws.MetricsPublisher, log *zap.Logger) *Processor {
	return &Processor{metrics: metrics, log: log}
}

// Handle receives an SQS batch event and processes each message.
// A returned error makes Lambda retry the batch; repeated failures land the
// message in the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var evt aws.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &evt); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.Info("received order event",
		zap.String("type", evt.Type),
		zap.String("order_id", evt.OrderID),
		zap.String("event_id", evt.EventID))

	switch evt.Type {
	case aws.EventOrderPlaced:
		if err := p.metrics.PutCount(ctx, metricSuccessfulOrder, 1); err != nil {
			return fmt.Errorf("emit %s: %w", metricSuccessfulOrder, err)
		}
		if err := p.metrics.PutCount(ctx, metricOrderTotal, evt.TotalAmount); err != nil {
			return fmt.Errorf("emit %s: %w", metricOrderTotal, err)
		}
	case aws.EventOrderCanceled:
		if err := p.metrics.PutCount(ctx, metricCanceledOrder, 1); err != nil {
			return fmt.Errorf("emit %s: %w", metricCanceledOrder, err)
		}
	default:
		// unknown types are skipped, not retried
		p.log.Warn("skipping unknown event type", zap.String("type", evt.Type))
	}

	return nil
}
