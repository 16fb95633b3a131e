// Package orders provides access to a shopper's order history for the
// return workflow.
package orders

import (
	"context"
	"errors"
)

// ErrOrderNotFound is returned when no order exists with the given id.
var ErrOrderNotFound = errors.New("order not found")

// Item is a line item within an order.
// Price and Quantity stay strings end to end; they are display values in
// tool observations, never arithmetic operands.
type Item struct {
	Name     string
	Price    string
	Quantity string
}

// Order is a shopper's order with its line items.
type Order struct {
	ID    string
	Items []Item
}

// Store provides order lookups for the return workflow.
type Store interface {
	// ReturnableOrders lists orders eligible for a return request.
	ReturnableOrders(ctx context.Context) ([]Order, error)

	// ItemsForOrder returns the order with the given id.
	// Returns ErrOrderNotFound when no such order exists.
	ItemsForOrder(ctx context.Context, orderID string) (Order, error)

	// Close releases any resources held by the store.
	Close() error
}

// ReturnReasons are the selectable reasons for a return request, in
// presentation order.
func ReturnReasons() []string {
	return []string{
		"Low Quality",
		"Large Size",
		"Small Size",
		"Other - Please specify",
	}
}
