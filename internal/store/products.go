package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventra-server/internal/models"
)

// CreateProduct inserts a product for the tenant
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, org_id, sku, name, category_id, quantity, unit_price, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		product.ID, product.OrgID, product.SKU, product.Name, product.CategoryID,
		product.Quantity, product.UnitPrice, product.LowStockThreshold,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

// GetProductBySKU retrieves a tenant's product by SKU
func (s *Store) GetProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.org_id = $1 AND p.sku = $2`, orgID, sku)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", sku, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all products for a tenant
func (s *Store) GetProducts(ctx context.Context, orgID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.org_id = $1
		ORDER BY p.name`, orgID)
	return products, err
}

// UpdateProductFields updates catalog fields only. Quantity is owned by the
// adjustment ledger and is not touched here.
func (s *Store) UpdateProductFields(ctx context.Context, product *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, category_id = $2, unit_price = $3, low_stock_threshold = $4, updated_at = NOW()
		WHERE org_id = $5 AND id = $6`,
		product.Name, product.CategoryID, product.UnitPrice, product.LowStockThreshold,
		product.OrgID, product.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProduct removes a tenant's product
func (s *Store) DeleteProduct(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM products WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetLowStockProducts retrieves products at or below their threshold
func (s *Store) GetLowStockProducts(ctx context.Context, orgID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.org_id = $1 AND p.quantity <= p.low_stock_threshold
		ORDER BY p.quantity`, orgID)
	return products, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ProductBySKU resolves a tenant's product inside a transaction
func (t *Tx) ProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE org_id = $1 AND sku = $2", orgID, sku)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", sku, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AddProductQuantity applies a signed delta to the aggregate on-hand count as
// a single atomic statement. The aggregate may go negative on this path.
func (t *Tx) AddProductQuantity(ctx context.Context, orgID, productID string, delta int) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE products SET quantity = quantity + $1, updated_at = NOW() WHERE org_id = $2 AND id = $3",
		delta, orgID, productID)
	if err != nil {
		return fmt.Errorf("failed to apply quantity delta: %w", err)
	}
	return requireRow(res)
}
