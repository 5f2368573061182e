package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventra-server/internal/models"
)

// GetCategoryByName resolves a tenant's category by name
func (s *Store) GetCategoryByName(ctx context.Context, orgID, name string) (*models.Category, error) {
	var cat models.Category
	err := s.db.GetContext(ctx, &cat,
		"SELECT * FROM categories WHERE org_id = $1 AND name = $2", orgID, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory inserts a category for the tenant
func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) error {
	return s.db.QueryRowxContext(ctx,
		"INSERT INTO categories (id, org_id, name) VALUES ($1, $2, $3) RETURNING created_at",
		cat.ID, cat.OrgID, cat.Name,
	).Scan(&cat.CreatedAt)
}

// GetCategories lists a tenant's categories
func (s *Store) GetCategories(ctx context.Context, orgID string) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.SelectContext(ctx, &cats,
		"SELECT * FROM categories WHERE org_id = $1 ORDER BY name", orgID)
	return cats, err
}

// DeleteCategory removes a tenant's category
func (s *Store) DeleteCategory(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM categories WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetSupplierByName resolves a tenant's supplier by name
func (s *Store) GetSupplierByName(ctx context.Context, orgID, name string) (*models.Supplier, error) {
	var sup models.Supplier
	err := s.db.GetContext(ctx, &sup,
		"SELECT * FROM suppliers WHERE org_id = $1 AND name = $2", orgID, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// CreateSupplier inserts a supplier for the tenant
func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	return s.db.QueryRowxContext(ctx,
		"INSERT INTO suppliers (id, org_id, name, email) VALUES ($1, $2, $3, $4) RETURNING created_at",
		sup.ID, sup.OrgID, sup.Name, sup.Email,
	).Scan(&sup.CreatedAt)
}

// GetSuppliers lists a tenant's suppliers
func (s *Store) GetSuppliers(ctx context.Context, orgID string) ([]models.Supplier, error) {
	var sups []models.Supplier
	err := s.db.SelectContext(ctx, &sups,
		"SELECT * FROM suppliers WHERE org_id = $1 ORDER BY name", orgID)
	return sups, err
}

// DeleteSupplier removes a tenant's supplier
func (s *Store) DeleteSupplier(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM suppliers WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetCustomerByName resolves a tenant's customer by name
func (s *Store) GetCustomerByName(ctx context.Context, orgID, name string) (*models.Customer, error) {
	var cust models.Customer
	err := s.db.GetContext(ctx, &cust,
		"SELECT * FROM customers WHERE org_id = $1 AND name = $2", orgID, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cust, nil
}

// CreateCustomer inserts a customer for the tenant
func (s *Store) CreateCustomer(ctx context.Context, cust *models.Customer) error {
	return s.db.QueryRowxContext(ctx,
		"INSERT INTO customers (id, org_id, name, email) VALUES ($1, $2, $3, $4) RETURNING created_at",
		cust.ID, cust.OrgID, cust.Name, cust.Email,
	).Scan(&cust.CreatedAt)
}

// GetCustomers lists a tenant's customers
func (s *Store) GetCustomers(ctx context.Context, orgID string) ([]models.Customer, error) {
	var custs []models.Customer
	err := s.db.SelectContext(ctx, &custs,
		"SELECT * FROM customers WHERE org_id = $1 ORDER BY name", orgID)
	return custs, err
}

// DeleteCustomer removes a tenant's customer
func (s *Store) DeleteCustomer(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM customers WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetLocationByName resolves a tenant's location by name
func (s *Store) GetLocationByName(ctx context.Context, orgID, name string) (*models.Location, error) {
	var loc models.Location
	err := s.db.GetContext(ctx, &loc,
		"SELECT * FROM locations WHERE org_id = $1 AND name = $2", orgID, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// CreateLocation inserts a location for the tenant
func (s *Store) CreateLocation(ctx context.Context, loc *models.Location) error {
	return s.db.QueryRowxContext(ctx,
		"INSERT INTO locations (id, org_id, name) VALUES ($1, $2, $3) RETURNING created_at",
		loc.ID, loc.OrgID, loc.Name,
	).Scan(&loc.CreatedAt)
}

// GetLocations lists a tenant's locations
func (s *Store) GetLocations(ctx context.Context, orgID string) ([]models.Location, error) {
	var locs []models.Location
	err := s.db.SelectContext(ctx, &locs,
		"SELECT * FROM locations WHERE org_id = $1 ORDER BY name", orgID)
	return locs, err
}
