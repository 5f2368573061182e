package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventra-server/internal/models"
)

// CreateOrder inserts an order and its lines in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	return s.WithinTx(ctx, func(tx *Tx) error {
		err := tx.tx.QueryRowxContext(ctx, `
			INSERT INTO orders (id, org_id, kind, reference, counterparty_id, total_amount, approval_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`,
			order.ID, order.OrgID, order.Kind, order.Reference,
			order.CounterpartyID, order.TotalAmount, order.ApprovalStatus,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range lines {
			_, err := tx.tx.ExecContext(ctx, `
				INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)`,
				lines[i].ID, lines[i].OrderID, lines[i].ProductID,
				lines[i].Quantity, lines[i].UnitPrice)
			if err != nil {
				return fmt.Errorf("failed to insert order line: %w", err)
			}
		}
		return nil
	})
}

// GetOrderByID retrieves a tenant's order of the given kind
func (s *Store) GetOrderByID(ctx context.Context, orgID, kind, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		SELECT o.*, COALESCE(sup.name, cust.name) AS counterparty_name
		FROM orders o
		LEFT JOIN suppliers sup ON sup.id = o.counterparty_id AND o.kind = 'purchase'
		LEFT JOIN customers cust ON cust.id = o.counterparty_id AND o.kind = 'sales'
		WHERE o.org_id = $1 AND o.kind = $2 AND o.id = $3`, orgID, kind, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves a tenant's orders of one kind, newest first
func (s *Store) GetOrders(ctx context.Context, orgID, kind string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT o.*, COALESCE(sup.name, cust.name) AS counterparty_name
		FROM orders o
		LEFT JOIN suppliers sup ON sup.id = o.counterparty_id AND o.kind = 'purchase'
		LEFT JOIN customers cust ON cust.id = o.counterparty_id AND o.kind = 'sales'
		WHERE o.org_id = $1 AND o.kind = $2
		ORDER BY o.created_at DESC`, orgID, kind)
	return orders, err
}

// GetOrderLines retrieves all lines for an order
func (s *Store) GetOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1", orderID)
	return lines, err
}

// TransitionOrderApproval moves a pending order to approved or rejected.
// The WHERE clause enforces the one-way transition: a non-pending row is
// reported as not found and nothing changes.
func (s *Store) TransitionOrderApproval(ctx context.Context, orgID, kind, id, status, actorID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders
		SET approval_status = $1, approved_by = $2, approved_at = $3, updated_at = NOW()
		WHERE org_id = $4 AND kind = $5 AND id = $6 AND approval_status = 'pending'
		RETURNING *`,
		status, actorID, time.Now().UTC(), orgID, kind, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pending order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
