package service

import (
	"context"
	"database/sql"
	"strings"

	"inventra-server/internal/auth"
	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService owns the tenant-scoped CRUD around the stock core:
// products, categories, suppliers, customers and locations. Every create
// passes the usage gate, including find-or-create side channels.
type CatalogService struct {
	store  *store.Store
	limits LimitChecker
	audit  Auditor
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st *store.Store, limits LimitChecker, audit Auditor) *CatalogService {
	return &CatalogService{
		store:  st,
		limits: limits,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// CreateProductRequest carries a new catalog entry. CategoryName is optional
// and resolved find-or-create.
type CreateProductRequest struct {
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	CategoryName      string          `json:"category_name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// UpdateProductRequest updates catalog fields. Quantity is deliberately
// absent: the aggregate count is owned by the adjustment ledger.
type UpdateProductRequest struct {
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	CategoryName      string          `json:"category_name"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// CreateProduct inserts a product after the usage gate. The initial quantity
// is the only quantity write that bypasses the adjustment ledger.
func (cs *CatalogService) CreateProduct(ctx context.Context, tenant *auth.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if strings.TrimSpace(req.SKU) == "" {
		return nil, validationErr("sku", "SKU is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name", "Name is required")
	}

	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "products"); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:                uuid.New().String(),
		OrgID:             tenant.OrgID,
		SKU:               req.SKU,
		Name:              req.Name,
		Quantity:          req.Quantity,
		UnitPrice:         req.UnitPrice,
		LowStockThreshold: req.LowStockThreshold,
	}

	if strings.TrimSpace(req.CategoryName) != "" {
		category, err := cs.FindOrCreateCategory(ctx, tenant, req.CategoryName)
		if err != nil {
			return nil, err
		}
		product.CategoryID = sql.NullString{String: category.ID, Valid: true}
	}

	if err := cs.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	cs.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "product",
		EntityID:   product.ID,
		Action:     "create",
		Metadata:   models.Metadata{"sku": product.SKU, "name": product.Name},
	})
	return product, nil
}

// UpdateProduct updates a product's catalog fields by SKU
func (cs *CatalogService) UpdateProduct(ctx context.Context, tenant *auth.Context, req *UpdateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if strings.TrimSpace(req.SKU) == "" {
		return nil, validationErr("sku", "SKU is required")
	}

	product, err := cs.store.GetProductBySKU(ctx, tenant.OrgID, req.SKU)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) != "" {
		product.Name = req.Name
	}
	product.UnitPrice = req.UnitPrice
	product.LowStockThreshold = req.LowStockThreshold

	if strings.TrimSpace(req.CategoryName) != "" {
		category, err := cs.FindOrCreateCategory(ctx, tenant, req.CategoryName)
		if err != nil {
			return nil, err
		}
		product.CategoryID = sql.NullString{String: category.ID, Valid: true}
	}

	if err := cs.store.UpdateProductFields(ctx, product); err != nil {
		return nil, err
	}

	cs.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "product",
		EntityID:   product.ID,
		Action:     "update",
		Metadata:   models.Metadata{"sku": product.SKU},
	})
	return product, nil
}

// DeleteProduct removes a product by SKU
func (cs *CatalogService) DeleteProduct(ctx context.Context, tenant *auth.Context, sku string) error {
	product, err := cs.store.GetProductBySKU(ctx, tenant.OrgID, sku)
	if err != nil {
		return err
	}
	if err := cs.store.DeleteProduct(ctx, tenant.OrgID, product.ID); err != nil {
		return err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "product",
		EntityID:   product.ID,
		Action:     "delete",
		Metadata:   models.Metadata{"sku": sku},
	})
	return nil
}

// GetProduct retrieves a product by SKU
func (cs *CatalogService) GetProduct(ctx context.Context, tenant *auth.Context, sku string) (*models.Product, error) {
	return cs.store.GetProductBySKU(ctx, tenant.OrgID, sku)
}

// GetProducts lists the tenant's products
func (cs *CatalogService) GetProducts(ctx context.Context, tenant *auth.Context) ([]models.Product, error) {
	return cs.store.GetProducts(ctx, tenant.OrgID)
}

// FindOrCreateCategory resolves a category by name, creating it (gated) when
// absent
func (cs *CatalogService) FindOrCreateCategory(ctx context.Context, tenant *auth.Context, name string) (*models.Category, error) {
	category, err := cs.store.GetCategoryByName(ctx, tenant.OrgID, name)
	if err == nil {
		return category, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "categories"); err != nil {
		return nil, err
	}
	category = &models.Category{ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name}
	if err := cs.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// FindOrCreateSupplier resolves a supplier by name, creating it (gated) when
// absent
func (cs *CatalogService) FindOrCreateSupplier(ctx context.Context, tenant *auth.Context, name string) (*models.Supplier, error) {
	supplier, err := cs.store.GetSupplierByName(ctx, tenant.OrgID, name)
	if err == nil {
		return supplier, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "suppliers"); err != nil {
		return nil, err
	}
	supplier = &models.Supplier{ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name}
	if err := cs.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// FindOrCreateCustomer resolves a customer by name, creating it (gated) when
// absent
func (cs *CatalogService) FindOrCreateCustomer(ctx context.Context, tenant *auth.Context, name string) (*models.Customer, error) {
	customer, err := cs.store.GetCustomerByName(ctx, tenant.OrgID, name)
	if err == nil {
		return customer, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "customers"); err != nil {
		return nil, err
	}
	customer = &models.Customer{ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name}
	if err := cs.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// CreateCategory inserts a category after the usage gate
func (cs *CatalogService) CreateCategory(ctx context.Context, tenant *auth.Context, name string) (*models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationErr("name", "Name is required")
	}
	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "categories"); err != nil {
		return nil, err
	}
	category := &models.Category{ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name}
	if err := cs.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "category", EntityID: category.ID, Action: "create",
		Metadata: models.Metadata{"name": name},
	})
	return category, nil
}

// GetCategories lists the tenant's categories
func (cs *CatalogService) GetCategories(ctx context.Context, tenant *auth.Context) ([]models.Category, error) {
	return cs.store.GetCategories(ctx, tenant.OrgID)
}

// DeleteCategory removes a tenant's category
func (cs *CatalogService) DeleteCategory(ctx context.Context, tenant *auth.Context, id string) error {
	if err := cs.store.DeleteCategory(ctx, tenant.OrgID, id); err != nil {
		return err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "category", EntityID: id, Action: "delete",
	})
	return nil
}

// CreateSupplier inserts a supplier after the usage gate
func (cs *CatalogService) CreateSupplier(ctx context.Context, tenant *auth.Context, name, email string) (*models.Supplier, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationErr("name", "Name is required")
	}
	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "suppliers"); err != nil {
		return nil, err
	}
	supplier := &models.Supplier{
		ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name,
		Email: sql.NullString{String: email, Valid: email != ""},
	}
	if err := cs.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "supplier", EntityID: supplier.ID, Action: "create",
		Metadata: models.Metadata{"name": name},
	})
	return supplier, nil
}

// GetSuppliers lists the tenant's suppliers
func (cs *CatalogService) GetSuppliers(ctx context.Context, tenant *auth.Context) ([]models.Supplier, error) {
	return cs.store.GetSuppliers(ctx, tenant.OrgID)
}

// DeleteSupplier removes a tenant's supplier
func (cs *CatalogService) DeleteSupplier(ctx context.Context, tenant *auth.Context, id string) error {
	if err := cs.store.DeleteSupplier(ctx, tenant.OrgID, id); err != nil {
		return err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "supplier", EntityID: id, Action: "delete",
	})
	return nil
}

// CreateCustomer inserts a customer after the usage gate
func (cs *CatalogService) CreateCustomer(ctx context.Context, tenant *auth.Context, name, email string) (*models.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationErr("name", "Name is required")
	}
	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "customers"); err != nil {
		return nil, err
	}
	customer := &models.Customer{
		ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name,
		Email: sql.NullString{String: email, Valid: email != ""},
	}
	if err := cs.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "customer", EntityID: customer.ID, Action: "create",
		Metadata: models.Metadata{"name": name},
	})
	return customer, nil
}

// GetCustomers lists the tenant's customers
func (cs *CatalogService) GetCustomers(ctx context.Context, tenant *auth.Context) ([]models.Customer, error) {
	return cs.store.GetCustomers(ctx, tenant.OrgID)
}

// DeleteCustomer removes a tenant's customer
func (cs *CatalogService) DeleteCustomer(ctx context.Context, tenant *auth.Context, id string) error {
	if err := cs.store.DeleteCustomer(ctx, tenant.OrgID, id); err != nil {
		return err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "customer", EntityID: id, Action: "delete",
	})
	return nil
}

// CreateLocation inserts a location after the usage gate
func (cs *CatalogService) CreateLocation(ctx context.Context, tenant *auth.Context, name string) (*models.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationErr("name", "Name is required")
	}
	if _, err := cs.store.GetLocationByName(ctx, tenant.OrgID, name); err == nil {
		return nil, &ConflictError{Message: "location already exists"}
	} else if !isNotFound(err) {
		return nil, err
	}
	if err := enforceLimit(ctx, cs.limits, tenant.OrgID, "locations"); err != nil {
		return nil, err
	}
	location := &models.Location{ID: uuid.New().String(), OrgID: tenant.OrgID, Name: name}
	if err := cs.store.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	cs.audit.Record(ctx, AuditEntry{
		OrgID: tenant.OrgID, ActorID: tenant.UserID,
		EntityType: "location", EntityID: location.ID, Action: "create",
		Metadata: models.Metadata{"name": name},
	})
	return location, nil
}

// GetLocations lists the tenant's locations
func (cs *CatalogService) GetLocations(ctx context.Context, tenant *auth.Context) ([]models.Location, error) {
	return cs.store.GetLocations(ctx, tenant.OrgID)
}
