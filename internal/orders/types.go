package orders

// Order statuses. CANCELED is terminal.
const (
	StatusPlaced   = "PLACED"
	StatusCanceled = "CANCELED"
)

// Order is the business payload nested under the record's "data" attribute.
// Status and OrderTime are managed by the lifecycle service; everything else
// is replaceable by edits.
type Order struct {
	OrderID      string                   `dynamodbav:"orderId" json:"orderId"`
	UserID       string                   `dynamodbav:"userId" json:"userId"`
	RestaurantID string                   `dynamodbav:"restaurantId" json:"restaurantId"`
	TotalAmount  float64                  `dynamodbav:"totalAmount" json:"totalAmount"`
	OrderItems   []map[string]interface{} `dynamodbav:"orderItems" json:"orderItems"`
	Metadata     map[string]interface{}   `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
	Status       string                   `dynamodbav:"status" json:"status"`
	OrderTime    string                   `dynamodbav:"orderTime" json:"orderTime"`
}

// Record is the item stored in the orders DynamoDB table. Composite key
// (userId, orderId); the payload lives under the nested "data" attribute so
// targeted updates can address individual payload fields.
type Record struct {
	UserID  string `dynamodbav:"userId"`  // PK
	OrderID string `dynamodbav:"orderId"` // SK
	Data    Order  `dynamodbav:"data"`
}
