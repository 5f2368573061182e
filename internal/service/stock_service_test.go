package service

import (
	"context"
	"fmt"
	"testing"

	"inventra-server/internal/auth"
	"inventra-server/internal/models"
	"inventra-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStockStore keeps everything in maps and runs "transactions" by calling
// the function directly. Operation ordering in the service guarantees no
// mutation precedes a failing step, so rollback is not simulated.
type fakeStockStore struct {
	products    map[string]*models.Product // by id
	locations   map[string]*models.Location
	adjustments map[string]*models.StockAdjustment
}

func newFakeStockStore() *fakeStockStore {
	return &fakeStockStore{
		products:    make(map[string]*models.Product),
		locations:   make(map[string]*models.Location),
		adjustments: make(map[string]*models.StockAdjustment),
	}
}

func (f *fakeStockStore) addProduct(sku string, qty int) *models.Product {
	p := &models.Product{ID: uuid.New().String(), OrgID: "org-1", SKU: sku, Quantity: qty}
	f.products[p.ID] = p
	return p
}

func (f *fakeStockStore) addLocation(name string) *models.Location {
	l := &models.Location{ID: uuid.New().String(), OrgID: "org-1", Name: name}
	f.locations[l.ID] = l
	return l
}

func (f *fakeStockStore) WithinStockTx(ctx context.Context, fn func(tx StockTx) error) error {
	return fn(f)
}

func (f *fakeStockStore) ProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error) {
	for _, p := range f.products {
		if p.OrgID == orgID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", sku, store.ErrNotFound)
}

func (f *fakeStockStore) AddProductQuantity(ctx context.Context, orgID, productID string, delta int) error {
	p, ok := f.products[productID]
	if !ok || p.OrgID != orgID {
		return store.ErrNotFound
	}
	p.Quantity += delta
	return nil
}

func (f *fakeStockStore) AdjustmentByID(ctx context.Context, orgID, id string) (*models.StockAdjustment, error) {
	adj, ok := f.adjustments[id]
	if !ok || adj.OrgID != orgID {
		return nil, fmt.Errorf("adjustment %s: %w", id, store.ErrNotFound)
	}
	copied := *adj
	return &copied, nil
}

func (f *fakeStockStore) InsertAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	copied := *adj
	f.adjustments[adj.ID] = &copied
	return nil
}

func (f *fakeStockStore) UpdateAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	if _, ok := f.adjustments[adj.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *adj
	f.adjustments[adj.ID] = &copied
	return nil
}

func (f *fakeStockStore) DeleteAdjustment(ctx context.Context, orgID, id string) error {
	adj, ok := f.adjustments[id]
	if !ok || adj.OrgID != orgID {
		return store.ErrNotFound
	}
	delete(f.adjustments, id)
	return nil
}

func (f *fakeStockStore) LocationByName(ctx context.Context, orgID, name string) (*models.Location, error) {
	for _, l := range f.locations {
		if l.OrgID == orgID && l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("location %s: %w", name, store.ErrNotFound)
}

func (f *fakeStockStore) InsertLocation(ctx context.Context, loc *models.Location) error {
	f.locations[loc.ID] = loc
	return nil
}

func (f *fakeStockStore) GetAdjustment(ctx context.Context, orgID, id string) (*models.StockAdjustment, error) {
	return f.AdjustmentByID(ctx, orgID, id)
}

func (f *fakeStockStore) GetAdjustments(ctx context.Context, orgID string) ([]models.StockAdjustment, error) {
	var out []models.StockAdjustment
	for _, adj := range f.adjustments {
		if adj.OrgID == orgID {
			out = append(out, *adj)
		}
	}
	return out, nil
}

// stubLimits allows everything except the keys listed in denied
type stubLimits struct {
	denied map[string]bool
}

func (s stubLimits) Check(ctx context.Context, orgID, key string) (*LimitResult, error) {
	if s.denied[key] {
		return &LimitResult{OK: false, Plan: "Free", Limit: 5, Current: 5}, nil
	}
	return &LimitResult{OK: true, Plan: "Free"}, nil
}

// recordingAuditor captures entries for assertions
type recordingAuditor struct {
	entries []AuditEntry
}

func (r *recordingAuditor) Record(ctx context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}

func testTenant() *auth.Context {
	return &auth.Context{OrgID: "org-1", UserID: "user-1", Role: auth.RoleManager}
}

func newStockService(f *fakeStockStore, limits LimitChecker) (*StockService, *recordingAuditor) {
	audit := &recordingAuditor{}
	return &StockService{
		store:  f,
		limits: limits,
		audit:  audit,
		logger: zap.NewNop(),
	}, audit
}

func intPtr(v int) *int { return &v }

func TestCreateAdjustmentAppliesDelta(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	f.addLocation("Main")
	svc, audit := newStockService(f, stubLimits{})

	adj, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU:    "SKU-1",
		LocationName:  "Main",
		QuantityDelta: intPtr(5),
		Reason:        "recount",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, product.Quantity)
	assert.Equal(t, 5, adj.QuantityDelta)
	assert.Equal(t, product.ID, adj.ProductID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "create", audit.entries[0].Action)
}

func TestAdjustmentLifecycleReconcilesQuantity(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})
	ctx := context.Background()
	tenant := testTenant()

	a1, err := svc.CreateAdjustment(ctx, tenant, &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, product.Quantity)

	a2, err := svc.CreateAdjustment(ctx, tenant, &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(-3),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, product.Quantity)

	// Revising +5 down to +2 must apply the net -3, not the raw delta
	_, err = svc.UpdateAdjustment(ctx, tenant, &UpdateAdjustmentRequest{
		ID: a1.ID, ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, product.Quantity)

	require.NoError(t, svc.DeleteAdjustment(ctx, tenant, a2.ID))
	assert.Equal(t, 12, product.Quantity)
}

func TestUpdateAdjustmentMovesDeltaAcrossProducts(t *testing.T) {
	f := newFakeStockStore()
	p1 := f.addProduct("SKU-1", 10)
	p2 := f.addProduct("SKU-2", 20)
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})
	ctx := context.Background()
	tenant := testTenant()

	adj, err := svc.CreateAdjustment(ctx, tenant, &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, p1.Quantity)

	updated, err := svc.UpdateAdjustment(ctx, tenant, &UpdateAdjustmentRequest{
		ID: adj.ID, ProductSKU: "SKU-2", LocationName: "Main", QuantityDelta: intPtr(4),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, p1.Quantity, "old product regains the reversed delta")
	assert.Equal(t, 24, p2.Quantity, "new product receives the new delta")
	assert.Equal(t, p2.ID, updated.ProductID)
}

func TestCreateAdjustmentZeroDeltaAccepted(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})

	adj, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, adj.QuantityDelta)
	assert.Equal(t, 10, product.Quantity)
}

func TestCreateAdjustmentValidation(t *testing.T) {
	f := newFakeStockStore()
	f.addProduct("SKU-1", 10)
	svc, _ := newStockService(f, stubLimits{})
	ctx := context.Background()
	tenant := testTenant()

	cases := []struct {
		name string
		req  *CreateAdjustmentRequest
	}{
		{"missing sku", &CreateAdjustmentRequest{LocationName: "Main", QuantityDelta: intPtr(1)}},
		{"missing location", &CreateAdjustmentRequest{ProductSKU: "SKU-1", QuantityDelta: intPtr(1)}},
		{"missing delta", &CreateAdjustmentRequest{ProductSKU: "SKU-1", LocationName: "Main"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAdjustment(ctx, tenant, tc.req)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestCreateAdjustmentRejectedByLimit(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	f.addLocation("Main")
	svc, audit := newStockService(f, stubLimits{denied: map[string]bool{"stock_adjustments": true}})

	_, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(5),
	})

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "stock_adjustments", limitErr.Key)
	assert.Equal(t, 10, product.Quantity, "rejected adjustment must not mutate stock")
	assert.Empty(t, f.adjustments)
	assert.Empty(t, audit.entries)
}

func TestCreateAdjustmentAutoCreatesLocation(t *testing.T) {
	f := newFakeStockStore()
	f.addProduct("SKU-1", 10)
	svc, _ := newStockService(f, stubLimits{})

	adj, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Backroom", QuantityDelta: intPtr(1),
	})
	require.NoError(t, err)

	loc, lookupErr := f.LocationByName(context.Background(), "org-1", "Backroom")
	require.NoError(t, lookupErr)
	assert.Equal(t, loc.ID, adj.LocationID)
}

func TestCreateAdjustmentLocationCreationGated(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	svc, _ := newStockService(f, stubLimits{denied: map[string]bool{"locations": true}})

	_, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Backroom", QuantityDelta: intPtr(1),
	})

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "locations", limitErr.Key)
	assert.Equal(t, 10, product.Quantity)
	assert.Empty(t, f.locations)
}

func TestDeleteAdjustmentTwice(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 10)
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})
	ctx := context.Background()
	tenant := testTenant()

	adj, err := svc.CreateAdjustment(ctx, tenant, &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, product.Quantity)

	require.NoError(t, svc.DeleteAdjustment(ctx, tenant, adj.ID))
	assert.Equal(t, 10, product.Quantity)

	err = svc.DeleteAdjustment(ctx, tenant, adj.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 10, product.Quantity, "second delete must not revert again")
}

func TestCreateAdjustmentUnknownProduct(t *testing.T) {
	f := newFakeStockStore()
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})

	_, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "MISSING", LocationName: "Main", QuantityDelta: intPtr(1),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdjustmentCanDriveAggregateNegative(t *testing.T) {
	f := newFakeStockStore()
	product := f.addProduct("SKU-1", 2)
	f.addLocation("Main")
	svc, _ := newStockService(f, stubLimits{})

	_, err := svc.CreateAdjustment(context.Background(), testTenant(), &CreateAdjustmentRequest{
		ProductSKU: "SKU-1", LocationName: "Main", QuantityDelta: intPtr(-5),
	})
	require.NoError(t, err)
	assert.Equal(t, -3, product.Quantity)
}
