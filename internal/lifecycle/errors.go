package lifecycle

import (
	"fmt"
	"time"

	"github.com/imrishuroy/go-order-lifecycle/internal/orders"
)

// NotFoundError indicates no order exists for the (userId, orderId) key.
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Order %s not found", e.OrderID)
}

// InvalidStateError indicates a mutation was rejected because the order is
// not in the PLACED state. Status carries the actual status observed.
type InvalidStateError struct {
	OrderID string
	Status  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("Cannot cancel/edit Order %s. Status = %s - Expected: %s",
		e.OrderID, e.Status, orders.StatusPlaced)
}

// WindowExpiredError indicates a cancellation was attempted after the
// 10-minute grace period.
type WindowExpiredError struct {
	OrderID string
	Elapsed time.Duration
}

func (e *WindowExpiredError) Error() string {
	return fmt.Sprintf("Order %s placed %.2f minutes ago. Orders can only be canceled within %d minutes of placement.",
		e.OrderID, e.Elapsed.Minutes(), int(cancelWindow.Minutes()))
}
