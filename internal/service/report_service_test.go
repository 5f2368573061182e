package service

import (
	"context"
	"testing"

	"inventra-server/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReportStore struct {
	products []models.Product
	lowStock []models.Product
}

func (f *fakeReportStore) GetProducts(ctx context.Context, orgID string) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeReportStore) GetLowStockProducts(ctx context.Context, orgID string) ([]models.Product, error) {
	return f.lowStock, nil
}

type stubFeatureGate struct {
	disabled map[string]bool
}

func (s stubFeatureGate) RequireFeature(ctx context.Context, orgID, key string) error {
	if s.disabled[key] {
		return &FeatureUnavailableError{Key: key, Plan: "Free"}
	}
	return nil
}

func newReportService(f *fakeReportStore, gate FeatureGate) *ReportService {
	return &ReportService{store: f, features: gate, logger: zap.NewNop()}
}

func TestInventorySummary(t *testing.T) {
	low := models.Product{ID: "p-2", SKU: "SKU-2", Quantity: 1,
		UnitPrice: decimal.RequireFromString("2.50"), LowStockThreshold: 5}
	f := &fakeReportStore{
		products: []models.Product{
			{ID: "p-1", SKU: "SKU-1", Quantity: 10, UnitPrice: decimal.RequireFromString("19.99")},
			low,
		},
		lowStock: []models.Product{low},
	}
	svc := newReportService(f, stubFeatureGate{})

	report, err := svc.InventorySummary(context.Background(), testTenant())
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProductCount)
	assert.Equal(t, 11, report.TotalUnits)
	// 10 * 19.99 + 1 * 2.50
	assert.True(t, report.StockValue.Equal(decimal.RequireFromString("202.40")),
		"stock value was %s", report.StockValue)
	require.Len(t, report.LowStock, 1)
	assert.Equal(t, "SKU-2", report.LowStock[0].SKU)
}

func TestInventorySummaryEmptyCatalog(t *testing.T) {
	svc := newReportService(&fakeReportStore{}, stubFeatureGate{})

	report, err := svc.InventorySummary(context.Background(), testTenant())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ProductCount)
	assert.Equal(t, 0, report.TotalUnits)
	assert.True(t, report.StockValue.IsZero())
}

func TestInventorySummaryGatedByPlan(t *testing.T) {
	svc := newReportService(&fakeReportStore{}, stubFeatureGate{
		disabled: map[string]bool{"reports": true},
	})

	_, err := svc.InventorySummary(context.Background(), testTenant())
	var featureErr *FeatureUnavailableError
	require.ErrorAs(t, err, &featureErr)
	assert.Equal(t, "reports", featureErr.Key)
}
