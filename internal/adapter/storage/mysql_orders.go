package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// CreateOrder writes the order row and every line item in one transaction.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, total, created_at)
		VALUES (?, ?, ?, ?)`,
		order.ID, order.BuyerID, order.Total, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(order.Items) > 0 {
		values := make([]string, 0, len(order.Items))
		params := make([]any, 0, len(order.Items)*6)
		for i, li := range order.Items {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			params = append(params, order.ID, li.ItemID, i, li.SellerID, li.Status, li.OTP)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, item_id, position, seller_id, status, otp)
			VALUES `+strings.Join(values, ", "),
			params...,
		)
		if err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, total, created_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.BuyerID, &o.Total, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	lines, err := m.lineItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = lines[o.ID]
	return &o, nil
}

// CompleteLineItem is a single conditional write, so two concurrent
// redemptions of the same code cannot both succeed.
func (m *MySQLAdapter) CompleteLineItem(ctx context.Context, orderID, itemID, sellerID, otp string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE order_items
		SET status = 'completed', completed_at = ?
		WHERE order_id = ? AND item_id = ? AND seller_id = ? AND status = 'pending' AND otp = ?`,
		m.now().UTC(), orderID, itemID, sellerID, otp,
	)
	if err != nil {
		return false, fmt.Errorf("complete line item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

// FindOrders applies SellerID and LineStatus to the same line item.
func (m *MySQLAdapter) FindOrders(ctx context.Context, f port.OrderFilter) ([]domain.Order, error) {
	query := `SELECT o.id, o.buyer_id, o.total, o.created_at FROM orders o WHERE 1 = 1`
	var params []any

	if f.BuyerID != "" {
		query += ` AND o.buyer_id = ?`
		params = append(params, f.BuyerID)
	}
	if f.SellerID != "" || f.LineStatus != "" {
		sub := `SELECT 1 FROM order_items li WHERE li.order_id = o.id`
		if f.SellerID != "" {
			sub += ` AND li.seller_id = ?`
			params = append(params, f.SellerID)
		}
		if f.LineStatus != "" {
			sub += ` AND li.status = ?`
			params = append(params, f.LineStatus)
		}
		query += ` AND EXISTS (` + sub + `)`
	}
	query += ` ORDER BY o.created_at DESC, o.id`

	rows, err := m.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	lines, err := m.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = lines[orders[i].ID]
	}
	return orders, nil
}

// lineItems loads the line items of every order in ids, in checkout order.
func (m *MySQLAdapter) lineItems(ctx context.Context, orderIDs []string) (map[string][]domain.LineItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, item_id, seller_id, status, otp, completed_at
		FROM order_items
		WHERE order_id IN (`+placeholders(len(orderIDs))+`)
		ORDER BY order_id, position`,
		args(orderIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID     string
			li          domain.LineItem
			completedAt sql.NullTime
		)
		if err := rows.Scan(&orderID, &li.ItemID, &li.SellerID, &li.Status, &li.OTP, &completedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			li.CompletedAt = &t
		}
		out[orderID] = append(out[orderID], li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return out, nil
}
