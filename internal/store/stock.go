package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventra-server/internal/models"
)

// GetAdjustment retrieves one adjustment with product/location names joined
func (s *Store) GetAdjustment(ctx context.Context, orgID, id string) (*models.StockAdjustment, error) {
	var adj models.StockAdjustment
	err := s.db.GetContext(ctx, &adj, `
		SELECT a.*, p.sku AS product_sku, p.name AS product_name, l.name AS location_name
		FROM stock_adjustments a
		JOIN products p ON p.id = a.product_id
		JOIN locations l ON l.id = a.location_id
		WHERE a.org_id = $1 AND a.id = $2`, orgID, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("adjustment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

// GetAdjustments retrieves a tenant's adjustments, newest first
func (s *Store) GetAdjustments(ctx context.Context, orgID string) ([]models.StockAdjustment, error) {
	var adjs []models.StockAdjustment
	err := s.db.SelectContext(ctx, &adjs, `
		SELECT a.*, p.sku AS product_sku, p.name AS product_name, l.name AS location_name
		FROM stock_adjustments a
		JOIN products p ON p.id = a.product_id
		JOIN locations l ON l.id = a.location_id
		WHERE a.org_id = $1
		ORDER BY a.created_at DESC`, orgID)
	return adjs, err
}

// GetTransfers retrieves a tenant's transfers, newest first
func (s *Store) GetTransfers(ctx context.Context, orgID string) ([]models.StockTransfer, error) {
	var transfers []models.StockTransfer
	err := s.db.SelectContext(ctx, &transfers, `
		SELECT t.*, p.sku AS product_sku, fl.name AS from_location, tl.name AS to_location
		FROM stock_transfers t
		JOIN products p ON p.id = t.product_id
		JOIN locations fl ON fl.id = t.from_location_id
		JOIN locations tl ON tl.id = t.to_location_id
		WHERE t.org_id = $1
		ORDER BY t.created_at DESC`, orgID)
	return transfers, err
}

// GetBalances retrieves a tenant's per-location balances
func (s *Store) GetBalances(ctx context.Context, orgID string) ([]models.InventoryBalance, error) {
	var balances []models.InventoryBalance
	err := s.db.SelectContext(ctx, &balances, `
		SELECT * FROM inventory_balances
		WHERE org_id = $1
		ORDER BY product_id, location_id`, orgID)
	return balances, err
}

// AdjustmentByID loads an adjustment inside a transaction
func (t *Tx) AdjustmentByID(ctx context.Context, orgID, id string) (*models.StockAdjustment, error) {
	var adj models.StockAdjustment
	err := t.tx.GetContext(ctx, &adj,
		"SELECT * FROM stock_adjustments WHERE org_id = $1 AND id = $2", orgID, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("adjustment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

// InsertAdjustment inserts an adjustment row
func (t *Tx) InsertAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	return t.tx.QueryRowxContext(ctx, `
		INSERT INTO stock_adjustments (id, org_id, product_id, location_id, quantity_delta, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		adj.ID, adj.OrgID, adj.ProductID, adj.LocationID, adj.QuantityDelta, adj.Reason,
	).Scan(&adj.CreatedAt)
}

// UpdateAdjustment persists an adjustment's new fields
func (t *Tx) UpdateAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE stock_adjustments
		SET product_id = $1, location_id = $2, quantity_delta = $3, reason = $4
		WHERE org_id = $5 AND id = $6`,
		adj.ProductID, adj.LocationID, adj.QuantityDelta, adj.Reason, adj.OrgID, adj.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAdjustment removes an adjustment row
func (t *Tx) DeleteAdjustment(ctx context.Context, orgID, id string) error {
	res, err := t.tx.ExecContext(ctx,
		"DELETE FROM stock_adjustments WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// LocationByName resolves a tenant's location inside a transaction
func (t *Tx) LocationByName(ctx context.Context, orgID, name string) (*models.Location, error) {
	var loc models.Location
	err := t.tx.GetContext(ctx, &loc,
		"SELECT * FROM locations WHERE org_id = $1 AND name = $2", orgID, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// InsertLocation inserts a location row
func (t *Tx) InsertLocation(ctx context.Context, loc *models.Location) error {
	return t.tx.QueryRowxContext(ctx, `
		INSERT INTO locations (id, org_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		loc.ID, loc.OrgID, loc.Name,
	).Scan(&loc.CreatedAt)
}

// BalanceForUpdate reads a per-location balance under a row lock, defaulting
// to zero when no row exists yet
func (t *Tx) BalanceForUpdate(ctx context.Context, orgID, productID, locationID string) (int, error) {
	var quantity int
	err := t.tx.GetContext(ctx, &quantity, `
		SELECT quantity FROM inventory_balances
		WHERE org_id = $1 AND product_id = $2 AND location_id = $3
		FOR UPDATE`, orgID, productID, locationID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock balance: %w", err)
	}
	return quantity, nil
}

// AddBalance applies a signed delta to a per-location balance, creating the
// row on first touch
func (t *Tx) AddBalance(ctx context.Context, orgID, productID, locationID string, delta int) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventory_balances (org_id, product_id, location_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, product_id, location_id)
		DO UPDATE SET quantity = inventory_balances.quantity + $4, updated_at = NOW()`,
		orgID, productID, locationID, delta)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return nil
}

// InsertTransfer inserts a transfer row
func (t *Tx) InsertTransfer(ctx context.Context, transfer *models.StockTransfer) error {
	return t.tx.QueryRowxContext(ctx, `
		INSERT INTO stock_transfers (id, org_id, reference, product_id, from_location_id, to_location_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		transfer.ID, transfer.OrgID, transfer.Reference, transfer.ProductID,
		transfer.FromLocationID, transfer.ToLocationID, transfer.Quantity, transfer.Status,
	).Scan(&transfer.CreatedAt)
}
