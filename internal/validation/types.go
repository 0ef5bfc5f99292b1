package validation

// OrderItem represents a single line item of an order.
type OrderItem struct {
	ID       string  `json:"id,omitempty"`                       // optional menu item id
	Name     string  `json:"name" validate:"required"`           // display name
	Price    float64 `json:"price" validate:"required,gt=0"`     // price per unit
	Quantity int     `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// CreateOrderRequest is the payload for POST /orders. The client supplies
// the order id; it doubles as the idempotency token.
type CreateOrderRequest struct {
	OrderID      string                 `json:"orderId" validate:"required"`
	RestaurantID string                 `json:"restaurantId" validate:"required"`
	TotalAmount  float64                `json:"totalAmount" validate:"required,gt=0"`
	OrderItems   []OrderItem            `json:"orderItems" validate:"required,min=1,dive"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"` // optional free-form extension fields
}

// EditOrderRequest is the replacement payload for PUT /orders/:orderId.
// The order id comes from the path, never from the body.
type EditOrderRequest struct {
	RestaurantID string                 `json:"restaurantId" validate:"required"`
	TotalAmount  float64                `json:"totalAmount" validate:"required,gt=0"`
	OrderItems   []OrderItem            `json:"orderItems" validate:"required,min=1,dive"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
