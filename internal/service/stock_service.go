package service

import (
	"context"
	"strings"
	"time"

	"inventra-server/internal/auth"
	"inventra-server/internal/broker"
	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockTx is the transactional surface the adjustment reconciliation runs
// on. Every quantity mutation behind it is a single atomic statement, so the
// read-compute-write races of naive implementations cannot occur.
type StockTx interface {
	ProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error)
	AddProductQuantity(ctx context.Context, orgID, productID string, delta int) error
	AdjustmentByID(ctx context.Context, orgID, id string) (*models.StockAdjustment, error)
	InsertAdjustment(ctx context.Context, adj *models.StockAdjustment) error
	UpdateAdjustment(ctx context.Context, adj *models.StockAdjustment) error
	DeleteAdjustment(ctx context.Context, orgID, id string) error
	LocationByName(ctx context.Context, orgID, name string) (*models.Location, error)
	InsertLocation(ctx context.Context, loc *models.Location) error
}

// StockStore runs stock transactions and serves adjustment reads
type StockStore interface {
	WithinStockTx(ctx context.Context, fn func(tx StockTx) error) error
	GetAdjustment(ctx context.Context, orgID, id string) (*models.StockAdjustment, error)
	GetAdjustments(ctx context.Context, orgID string) ([]models.StockAdjustment, error)
}

type sqlStockStore struct {
	*store.Store
}

func (s sqlStockStore) WithinStockTx(ctx context.Context, fn func(tx StockTx) error) error {
	return s.WithinTx(ctx, func(tx *store.Tx) error { return fn(tx) })
}

// StockService keeps the aggregate product quantity consistent with the
// adjustment ledger: each adjustment's delta is applied exactly once, and
// edits and deletes reconcile the previously applied delta.
type StockService struct {
	store  StockStore
	limits LimitChecker
	audit  Auditor
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewStockService creates a new stock service
func NewStockService(st *store.Store, limits LimitChecker, audit Auditor, events *broker.EventPublisher) *StockService {
	return &StockService{
		store:  sqlStockStore{st},
		limits: limits,
		audit:  audit,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateAdjustmentRequest carries a new manual quantity change. The delta is
// a pointer so a present zero is distinguishable from a missing field: zero
// deltas are accepted, absent ones are not.
type CreateAdjustmentRequest struct {
	ProductSKU    string `json:"product_sku"`
	LocationName  string `json:"location_name"`
	QuantityDelta *int   `json:"quantity_delta"`
	Reason        string `json:"reason"`
}

// UpdateAdjustmentRequest revises an existing adjustment
type UpdateAdjustmentRequest struct {
	ID            string `json:"id"`
	ProductSKU    string `json:"product_sku"`
	LocationName  string `json:"location_name"`
	QuantityDelta *int   `json:"quantity_delta"`
	Reason        string `json:"reason"`
}

func validateAdjustmentInput(sku, locationName string, delta *int) error {
	if strings.TrimSpace(sku) == "" {
		return validationErr("product_sku", "Product is required")
	}
	if strings.TrimSpace(locationName) == "" {
		return validationErr("location_name", "Location is required")
	}
	if delta == nil {
		return validationErr("quantity_delta", "Quantity change is required")
	}
	return nil
}

// CreateAdjustment applies the delta to the product's aggregate quantity and
// records the adjustment, as one transaction. The aggregate is allowed to go
// negative on this path.
func (s *StockService) CreateAdjustment(ctx context.Context, tenant *auth.Context, req *CreateAdjustmentRequest) (*models.StockAdjustment, error) {
	ctx, span := util.StartSpan(ctx, "StockService.CreateAdjustment")
	defer span.End()

	if err := validateAdjustmentInput(req.ProductSKU, req.LocationName, req.QuantityDelta); err != nil {
		return nil, err
	}

	if err := enforceLimit(ctx, s.limits, tenant.OrgID, "stock_adjustments"); err != nil {
		util.AdjustmentsFailedTotal.WithLabelValues("limit").Inc()
		return nil, err
	}

	start := time.Now()
	adj := &models.StockAdjustment{
		ID:            uuid.New().String(),
		OrgID:         tenant.OrgID,
		QuantityDelta: *req.QuantityDelta,
		Reason:        req.Reason,
	}

	err := s.store.WithinStockTx(ctx, func(tx StockTx) error {
		product, err := tx.ProductBySKU(ctx, tenant.OrgID, req.ProductSKU)
		if err != nil {
			return err
		}

		location, err := s.findOrCreateLocation(ctx, tx, tenant.OrgID, req.LocationName)
		if err != nil {
			return err
		}

		if err := tx.AddProductQuantity(ctx, tenant.OrgID, product.ID, adj.QuantityDelta); err != nil {
			return err
		}

		adj.ProductID = product.ID
		adj.LocationID = location.ID
		return tx.InsertAdjustment(ctx, adj)
	})
	if err != nil {
		util.AdjustmentsFailedTotal.WithLabelValues("tx_error").Inc()
		return nil, err
	}
	util.StockMutationLatency.Observe(time.Since(start).Seconds())
	util.AdjustmentsAppliedTotal.WithLabelValues("create").Inc()

	s.logger.Info("Stock adjustment created",
		zap.String("org_id", tenant.OrgID),
		zap.String("adjustment_id", adj.ID),
		zap.Int("delta", adj.QuantityDelta))

	s.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "stock_adjustment",
		EntityID:   adj.ID,
		Action:     "create",
		Metadata: models.Metadata{
			"product_sku":    req.ProductSKU,
			"location_name":  req.LocationName,
			"quantity_delta": adj.QuantityDelta,
		},
	})
	s.publishAdjustment(ctx, tenant.OrgID, adj, "create")

	return adj, nil
}

// UpdateAdjustment revises an adjustment and reconciles the product
// quantities. On the same product the net difference is applied in one step;
// when the product reference changed the old delta is reversed on the old
// product and the new delta applied to the new one, all in one transaction.
func (s *StockService) UpdateAdjustment(ctx context.Context, tenant *auth.Context, req *UpdateAdjustmentRequest) (*models.StockAdjustment, error) {
	ctx, span := util.StartSpan(ctx, "StockService.UpdateAdjustment")
	defer span.End()

	if strings.TrimSpace(req.ID) == "" {
		return nil, validationErr("id", "Missing id")
	}
	if err := validateAdjustmentInput(req.ProductSKU, req.LocationName, req.QuantityDelta); err != nil {
		return nil, err
	}

	start := time.Now()
	var updated *models.StockAdjustment

	err := s.store.WithinStockTx(ctx, func(tx StockTx) error {
		existing, err := tx.AdjustmentByID(ctx, tenant.OrgID, req.ID)
		if err != nil {
			return err
		}

		product, err := tx.ProductBySKU(ctx, tenant.OrgID, req.ProductSKU)
		if err != nil {
			return err
		}

		location, err := s.findOrCreateLocation(ctx, tx, tenant.OrgID, req.LocationName)
		if err != nil {
			return err
		}

		newDelta := *req.QuantityDelta
		oldDelta := existing.QuantityDelta

		if existing.ProductID == product.ID {
			if diff := newDelta - oldDelta; diff != 0 {
				if err := tx.AddProductQuantity(ctx, tenant.OrgID, product.ID, diff); err != nil {
					return err
				}
			}
		} else {
			if err := tx.AddProductQuantity(ctx, tenant.OrgID, existing.ProductID, -oldDelta); err != nil {
				return err
			}
			if err := tx.AddProductQuantity(ctx, tenant.OrgID, product.ID, newDelta); err != nil {
				return err
			}
		}

		existing.ProductID = product.ID
		existing.LocationID = location.ID
		existing.QuantityDelta = newDelta
		existing.Reason = req.Reason
		if err := tx.UpdateAdjustment(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		util.AdjustmentsFailedTotal.WithLabelValues("tx_error").Inc()
		return nil, err
	}
	util.StockMutationLatency.Observe(time.Since(start).Seconds())
	util.AdjustmentsAppliedTotal.WithLabelValues("update").Inc()

	s.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "stock_adjustment",
		EntityID:   req.ID,
		Action:     "update",
		Metadata: models.Metadata{
			"product_sku":    req.ProductSKU,
			"location_name":  req.LocationName,
			"quantity_delta": *req.QuantityDelta,
		},
	})
	s.publishAdjustment(ctx, tenant.OrgID, updated, "update")

	return updated, nil
}

// DeleteAdjustment undoes the adjustment's delta and removes the row in one
// transaction. A second delete finds no row and mutates nothing, so the
// reversal can never be applied twice.
func (s *StockService) DeleteAdjustment(ctx context.Context, tenant *auth.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "StockService.DeleteAdjustment")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return validationErr("id", "Missing id")
	}

	start := time.Now()
	var removed *models.StockAdjustment

	err := s.store.WithinStockTx(ctx, func(tx StockTx) error {
		existing, err := tx.AdjustmentByID(ctx, tenant.OrgID, id)
		if err != nil {
			return err
		}

		if err := tx.AddProductQuantity(ctx, tenant.OrgID, existing.ProductID, -existing.QuantityDelta); err != nil {
			return err
		}

		if err := tx.DeleteAdjustment(ctx, tenant.OrgID, id); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		util.AdjustmentsFailedTotal.WithLabelValues("tx_error").Inc()
		return err
	}
	util.StockMutationLatency.Observe(time.Since(start).Seconds())
	util.AdjustmentsAppliedTotal.WithLabelValues("delete").Inc()

	s.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "stock_adjustment",
		EntityID:   id,
		Action:     "delete",
	})
	s.publishAdjustment(ctx, tenant.OrgID, removed, "delete")

	return nil
}

// GetAdjustment retrieves one adjustment for the tenant
func (s *StockService) GetAdjustment(ctx context.Context, tenant *auth.Context, id string) (*models.StockAdjustment, error) {
	return s.store.GetAdjustment(ctx, tenant.OrgID, id)
}

// GetAdjustments lists the tenant's adjustments, newest first
func (s *StockService) GetAdjustments(ctx context.Context, tenant *auth.Context) ([]models.StockAdjustment, error) {
	return s.store.GetAdjustments(ctx, tenant.OrgID)
}

// findOrCreateLocation resolves a location by name, creating it when absent.
// The side-channel creation passes its own limit gate.
func (s *StockService) findOrCreateLocation(ctx context.Context, tx StockTx, orgID, name string) (*models.Location, error) {
	location, err := tx.LocationByName(ctx, orgID, name)
	if err == nil {
		return location, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if err := enforceLimit(ctx, s.limits, orgID, "locations"); err != nil {
		return nil, err
	}

	location = &models.Location{
		ID:    uuid.New().String(),
		OrgID: orgID,
		Name:  name,
	}
	if err := tx.InsertLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *StockService) publishAdjustment(ctx context.Context, orgID string, adj *models.StockAdjustment, action string) {
	if s.events == nil || adj == nil {
		return
	}
	event := &models.AdjustmentAppliedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAdjustmentApplied,
			OrgID:     orgID,
			Timestamp: time.Now(),
		},
		AdjustmentID: adj.ID,
		ProductID:    adj.ProductID,
		Delta:        adj.QuantityDelta,
		Action:       action,
	}
	if err := s.events.PublishAdjustmentApplied(ctx, event); err != nil {
		s.logger.Error("Failed to publish adjustment event", zap.Error(err))
	}
}
