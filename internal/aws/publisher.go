package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// Order lifecycle event types.
const (
	EventOrderPlaced   = "ORDER_PLACED"
	EventOrderCanceled = "ORDER_CANCELED"
)

// OrderEvent is the payload published to the order-events queue after a
// successful lifecycle transition. Consumed by cmd/worker for metrics.
type OrderEvent struct {
	EventID     string  `json:"event_id"`
	Type        string  `json:"type"`
	OrderID     string  `json:"order_id"`
	UserID      string  `json:"user_id"`
	TotalAmount float64 `json:"total_amount,omitempty"`
	At          string  `json:"at"` // RFC3339
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderEvent sends a lifecycle event to the queue. The event id and
// timestamp are filled in when the caller left them empty.
func (p *Publisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.At == "" {
		evt.At = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgBody := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msgBody,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"type": {
				DataType:    awsString("String"),
				StringValue: &evt.Type,
			},
			"order_id": {
				DataType:    awsString("String"),
				StringValue: &evt.OrderID,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
