package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// OrderRepository persists uploaded orders and their line items.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts the order and its line items in one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id, customer, source, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,'',$5,$5)
`, order.ID, order.Customer, order.Source, string(order.Status), now)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.LineItems {
		requirementsJSON, err := json.Marshal(item.Requirements)
		if err != nil {
			return fmt.Errorf("marshal requirements: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO line_items (id, order_id, position, raw_text, quantity, unit, material_hint, part_number_hint, dimensions_hint, urgency, requirements)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
			item.ID, order.ID, i, item.RawText, item.Quantity, item.Unit,
			item.MaterialHint, item.PartNumberHint, item.DimensionsHint, item.Urgency, requirementsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert line item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer, source, status
FROM orders
WHERE id = $1
`, id)

	var order domain.Order
	var status string
	if err := row.Scan(&order.ID, &order.Customer, &order.Source, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrOrderNotFound, "get order", fmt.Errorf("id %q", id))
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := r.ListLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.LineItems = items
	return &order, nil
}

func (r *OrderRepository) ListLineItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, raw_text, quantity, unit, material_hint, part_number_hint, dimensions_hint, urgency, requirements
FROM line_items
WHERE order_id = $1
ORDER BY position
`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		var requirementsRaw []byte
		err := rows.Scan(
			&item.ID, &item.RawText, &item.Quantity, &item.Unit,
			&item.MaterialHint, &item.PartNumberHint, &item.DimensionsHint, &item.Urgency, &requirementsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		if err := json.Unmarshal(requirementsRaw, &item.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshal requirements: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrOrderNotFound, "update order status", fmt.Errorf("id %q", id))
	}
	return nil
}
