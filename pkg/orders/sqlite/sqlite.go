// Package sqlite provides a SQLite-backed order store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anycompanyretail/shopbot/pkg/orders"
)

// Store implements orders.Store over a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite order store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewStore opens (and if needed initializes) a SQLite order store.
func NewStore(c Config, logger *slog.Logger) (*Store, error) {
	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite order store initialized", "db_path", c.DBPath)

	return &Store{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			returnable INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL REFERENCES orders(order_id),
			name TEXT NOT NULL,
			price TEXT NOT NULL,
			quantity TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating order tables: %w", err)
	}
	return nil
}

// Seed inserts orders, replacing any rows with the same order id.
// Every seeded order is marked returnable.
func (s *Store) Seed(ctx context.Context, seed []orders.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, order := range seed {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO orders(order_id, returnable) VALUES (?, 1)`,
			order.ID,
		); err != nil {
			return fmt.Errorf("inserting order %s: %w", order.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE order_id = ?`, order.ID,
		); err != nil {
			return fmt.Errorf("clearing items for order %s: %w", order.ID, err)
		}

		for _, item := range order.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items(order_id, name, price, quantity) VALUES (?, ?, ?, ?)`,
				order.ID, item.Name, item.Price, item.Quantity,
			); err != nil {
				return fmt.Errorf("inserting item for order %s: %w", order.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ReturnableOrders lists orders eligible for a return request.
func (s *Store) ReturnableOrders(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.order_id, i.name, i.price, i.quantity
		FROM orders o
		INNER JOIN order_items i ON i.order_id = o.order_id
		WHERE o.returnable = 1
		ORDER BY o.order_id, i.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying returnable orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ItemsForOrder returns the order with the given id.
func (s *Store) ItemsForOrder(ctx context.Context, orderID string) (orders.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.order_id, i.name, i.price, i.quantity
		FROM orders o
		INNER JOIN order_items i ON i.order_id = o.order_id
		WHERE o.order_id = ?
		ORDER BY i.id
	`, orderID)
	if err != nil {
		return orders.Order{}, fmt.Errorf("querying order %s: %w", orderID, err)
	}
	defer rows.Close()

	result, err := collectOrders(rows)
	if err != nil {
		return orders.Order{}, err
	}
	if len(result) == 0 {
		return orders.Order{}, orders.ErrOrderNotFound
	}

	return result[0], nil
}

func collectOrders(rows *sql.Rows) ([]orders.Order, error) {
	var result []orders.Order
	index := make(map[string]int)

	for rows.Next() {
		var orderID string
		var item orders.Item
		if err := rows.Scan(&orderID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}

		i, ok := index[orderID]
		if !ok {
			result = append(result, orders.Order{ID: orderID})
			i = len(result) - 1
			index[orderID] = i
		}
		result[i].Items = append(result[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return result, nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ orders.Store = (*Store)(nil)
