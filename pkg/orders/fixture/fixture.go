// Package fixture provides a canned order store for development and demos.
package fixture

import (
	"context"

	"github.com/anycompanyretail/shopbot/pkg/orders"
)

// Store serves a fixed set of returnable orders.
type Store struct {
	orders []orders.Order
}

// NewStore creates a fixture store with the demo catalog orders.
func NewStore() *Store {
	return &Store{
		orders: []orders.Order{
			{
				ID: "OT1002",
				Items: []orders.Item{
					{Name: "Knitted Cap", Price: "100", Quantity: "2"},
				},
			},
			{
				ID: "OT1003",
				Items: []orders.Item{
					{Name: "Blue Shirt", Price: "300", Quantity: "1"},
				},
			},
		},
	}
}

// ReturnableOrders lists orders eligible for a return request.
func (s *Store) ReturnableOrders(ctx context.Context) ([]orders.Order, error) {
	out := make([]orders.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// ItemsForOrder returns the order with the given id.
func (s *Store) ItemsForOrder(ctx context.Context, orderID string) (orders.Order, error) {
	for _, order := range s.orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return orders.Order{}, orders.ErrOrderNotFound
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return nil
}

var _ orders.Store = (*Store)(nil)
