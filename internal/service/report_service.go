package service

import (
	"context"

	"inventra-server/internal/auth"
	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeatureGate guards plan-flagged surfaces
type FeatureGate interface {
	RequireFeature(ctx context.Context, orgID, key string) error
}

// ReportStore is the read surface the inventory summary aggregates
type ReportStore interface {
	GetProducts(ctx context.Context, orgID string) ([]models.Product, error)
	GetLowStockProducts(ctx context.Context, orgID string) ([]models.Product, error)
}

// InventoryReport summarizes a tenant's stock position
type InventoryReport struct {
	ProductCount int              `json:"product_count"`
	TotalUnits   int              `json:"total_units"`
	StockValue   decimal.Decimal  `json:"stock_value"`
	LowStock     []models.Product `json:"low_stock"`
}

// ReportService computes plan-gated inventory reports
type ReportService struct {
	store    ReportStore
	features FeatureGate
	logger   *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(st *store.Store, features FeatureGate) *ReportService {
	return &ReportService{
		store:    st,
		features: features,
		logger:   util.GetLogger(),
	}
}

// InventorySummary aggregates product counts, total on-hand units, stock
// value at catalog prices and the current low-stock rows. Gated by the
// reports plan flag.
func (rs *ReportService) InventorySummary(ctx context.Context, tenant *auth.Context) (*InventoryReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.InventorySummary")
	defer span.End()

	if err := rs.features.RequireFeature(ctx, tenant.OrgID, "reports"); err != nil {
		return nil, err
	}

	products, err := rs.store.GetProducts(ctx, tenant.OrgID)
	if err != nil {
		return nil, err
	}
	lowStock, err := rs.store.GetLowStockProducts(ctx, tenant.OrgID)
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{
		ProductCount: len(products),
		StockValue:   decimal.Zero,
		LowStock:     lowStock,
	}
	for _, p := range products {
		report.TotalUnits += p.Quantity
		report.StockValue = report.StockValue.Add(
			p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return report, nil
}

var _ ReportStore = (*store.Store)(nil)
