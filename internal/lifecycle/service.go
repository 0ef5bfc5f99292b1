package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-order-lifecycle/internal/aws"
	"github.com/imrishuroy/go-order-lifecycle/internal/idempotency"
	"github.com/imrishuroy/go-order-lifecycle/internal/orders"
)

// cancelWindow is the period after placement during which an order may be
// canceled. The boundary is inclusive: an order exactly this old still
// cancels.
const cancelWindow = 10 * time.Minute

// OrderStore is the persistence surface the state machine drives.
type OrderStore interface {
	Get(ctx context.Context, userID, orderID string) (*orders.Order, error)
	List(ctx context.Context, userID string) ([]orders.Order, error)
	Put(ctx context.Context, rec orders.Record) error
	MarkCanceled(ctx context.Context, userID, orderID string) (*orders.Order, error)
}

// TokenGuard deduplicates creation requests per idempotency token.
type TokenGuard interface {
	Execute(ctx context.Context, key string, op idempotency.Operation) ([]byte, bool, error)
}

// EventPublisher emits lifecycle events for downstream consumers. Emission
// is best-effort; a publish failure never fails the request.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt aws.OrderEvent) error
}

// CreateInput carries the client payload for a new order. The order id is
// client-supplied and doubles as the idempotency token.
type CreateInput struct {
	OrderID      string
	RestaurantID string
	TotalAmount  float64
	OrderItems   []map[string]interface{}
	Metadata     map[string]interface{}
}

// EditInput carries the replacement payload for an existing order.
type EditInput struct {
	RestaurantID string
	TotalAmount  float64
	OrderItems   []map[string]interface{}
	Metadata     map[string]interface{}
}

// Service validates and applies order state transitions. Each request runs
// independently; all coordination happens through the store's per-key
// atomicity, never through in-process state.
type Service struct {
	store     OrderStore
	guard     TokenGuard
	publisher EventPublisher // optional
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewService wires the state machine with its collaborators. publisher may
// be nil when no event queue is configured.
func NewService(store OrderStore, guard TokenGuard, publisher EventPublisher, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		guard:     guard,
		publisher: publisher,
		log:       log,
		nowFunc:   time.Now,
	}
}

// tokenFor scopes the idempotency token by user, so identical order ids
// submitted by different users never collide.
func tokenFor(userID, orderID string) string {
	return userID + "#" + orderID
}

// Create places a new order under the idempotency guard. A retried request
// with the same (userId, orderId) gets the originally recorded order back
// without a second insert.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*orders.Order, error) {
	body, replayed, err := s.guard.Execute(ctx, tokenFor(userID, in.OrderID), func(ctx context.Context) ([]byte, error) {
		now := s.nowFunc().UTC().Truncate(time.Second)
		order := orders.Order{
			OrderID:      in.OrderID,
			UserID:       userID,
			RestaurantID: in.RestaurantID,
			TotalAmount:  in.TotalAmount,
			OrderItems:   in.OrderItems,
			Metadata:     in.Metadata,
			Status:       orders.StatusPlaced,
			OrderTime:    now.Format(time.RFC3339),
		}
		rec := orders.Record{UserID: userID, OrderID: in.OrderID, Data: order}
		if err := s.store.Put(ctx, rec); err != nil {
			return nil, err
		}

		s.emit(ctx, aws.OrderEvent{
			Type:        aws.EventOrderPlaced,
			OrderID:     in.OrderID,
			UserID:      userID,
			TotalAmount: in.TotalAmount,
			At:          order.OrderTime,
		})

		return json.Marshal(order)
	})
	if err != nil {
		return nil, err
	}

	var order orders.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decode recorded order: %w", err)
	}
	if replayed {
		s.log.Info("replayed order creation",
			zap.String("user_id", userID), zap.String("order_id", in.OrderID))
	}
	return &order, nil
}

// Get returns the current state of a single order.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	order, err := s.store.Get(ctx, userID, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, &NotFoundError{OrderID: orderID}
	}
	return order, err
}

// List returns all of the user's orders, in store order.
func (s *Service) List(ctx context.Context, userID string) ([]orders.Order, error) {
	return s.store.List(ctx, userID)
}

// Edit replaces the order's payload fields while preserving status and
// orderTime. Only PLACED orders may be edited. Returns the order as read
// back after the write.
func (s *Service) Edit(ctx context.Context, userID, orderID string, in EditInput) (*orders.Order, error) {
	current, err := s.store.Get(ctx, userID, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, &NotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}
	if current.Status != orders.StatusPlaced {
		return nil, &InvalidStateError{OrderID: orderID, Status: current.Status}
	}

	next := orders.Order{
		OrderID:      orderID,
		UserID:       userID,
		RestaurantID: in.RestaurantID,
		TotalAmount:  in.TotalAmount,
		OrderItems:   in.OrderItems,
		Metadata:     in.Metadata,
		Status:       current.Status,
		OrderTime:    current.OrderTime,
	}
	rec := orders.Record{UserID: userID, OrderID: orderID, Data: next}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, userID, orderID)
}

// Cancel transitions a PLACED order to CANCELED if it is at most ten
// minutes old. The status flip is a single conditional update, so a racing
// duplicate observes InvalidStateError instead of a second success.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	current, err := s.store.Get(ctx, userID, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, &NotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}
	if current.Status != orders.StatusPlaced {
		return nil, &InvalidStateError{OrderID: orderID, Status: current.Status}
	}

	placedAt, err := time.Parse(time.RFC3339, current.OrderTime)
	if err != nil {
		return nil, fmt.Errorf("parse orderTime %q: %w", current.OrderTime, err)
	}
	elapsed := s.nowFunc().UTC().Sub(placedAt)
	if elapsed > cancelWindow {
		return nil, &WindowExpiredError{OrderID: orderID, Elapsed: elapsed}
	}

	updated, err := s.store.MarkCanceled(ctx, userID, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, &NotFoundError{OrderID: orderID}
	}
	if errors.Is(err, orders.ErrStatusMismatch) {
		// lost the conditional write to a concurrent transition
		return nil, &InvalidStateError{OrderID: orderID, Status: orders.StatusCanceled}
	}
	if err != nil {
		return nil, err
	}

	s.emit(ctx, aws.OrderEvent{
		Type:        aws.EventOrderCanceled,
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: updated.TotalAmount,
	})

	return updated, nil
}

func (s *Service) emit(ctx context.Context, evt aws.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("type", evt.Type),
			zap.String("order_id", evt.OrderID),
			zap.Error(err))
	}
}
