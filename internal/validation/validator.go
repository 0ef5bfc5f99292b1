package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// both request shapes must have a totalAmount that matches the sum of
	// (price * quantity) of their items
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})
	v.RegisterStructValidation(editOrderStructValidation, EditOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)
	checkTotalMatchesItems(sl, req.TotalAmount, req.OrderItems)
}

func editOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(EditOrderRequest)
	checkTotalMatchesItems(sl, req.TotalAmount, req.OrderItems)
}

// checkTotalMatchesItems compares in integer cents to avoid float rounding issues.
func checkTotalMatchesItems(sl validatorv10.StructLevel, total float64, items []OrderItem) {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.Price
	}

	sumCents := int(math.Round(sum * 100))
	totalCents := int(math.Round(total * 100))
	if sumCents != totalCents {
		sl.ReportError(total, "totalAmount", "TotalAmount", "total_match_items",
			fmt.Sprintf("items sum %.2f != totalAmount %.2f", sum, total))
	}
}
