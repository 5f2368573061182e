package service

import (
	"context"
	"database/sql"
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

// TransferTx is the transactional surface a transfer runs on. The source
// balance is read under a row lock before the insufficiency check, so two
// concurrent transfers cannot both drain the same stock.
type TransferTx interface {
	ProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error)
	LocationByName(ctx context.Context, orgID, name string) (*models.Location, error)
	BalanceForUpdate(ctx context.Context, orgID, productID, locationID string) (int, error)
	AddBalance(ctx context.Context, orgID, productID, locationID string, delta int) error
	InsertTransfer(ctx context.Context, transfer *models.StockTransfer) error
}

// TransferStore runs transfer transactions and serves reads
type TransferStore interface {
	WithinTransferTx(ctx context.Context, fn func(tx TransferTx) error) error
	GetTransfers(ctx context.Context, orgID string) ([]models.StockTransfer, error)
	GetBalances(ctx context.Context, orgID string) ([]models.InventoryBalance, error)
}

type sqlTransferStore struct {
	*store.Store
}

func (s sqlTransferStore) WithinTransferTx(ctx context.Context, fn func(tx TransferTx) error) error {
	return s.WithinTx(ctx, func(tx *store.Tx) error { return fn(tx) })
}

// TransferService moves stock between locations on the per-location balance
// ledger. Transfers never touch the aggregate product quantity; that ledger
// belongs to adjustments.
type TransferService struct {
	store  TransferStore
	audit  Auditor
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(st *store.Store, audit Auditor, events *broker.EventPublisher) *TransferService {
	return &TransferService{
		store:  sqlTransferStore{st},
		audit:  audit,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateTransferRequest carries an inter-location move. Both locations must
// already exist; unlike adjustments, transfers never auto-create them.
type CreateTransferRequest struct {
	Reference    string `json:"reference"`
	ProductSKU   string `json:"product_sku"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
	Quantity     int    `json:"quantity"`
}

// CreateTransfer verifies the source balance covers the quantity, moves it,
// and records the transfer as one completed unit
func (ts *TransferService) CreateTransfer(ctx context.Context, tenant *auth.Context, req *CreateTransferRequest) (*models.StockTransfer, error) {
	ctx, span := util.StartSpan(ctx, "TransferService.CreateTransfer")
	defer span.End()

	if strings.TrimSpace(req.ProductSKU) == "" {
		return nil, validationErr("product_sku", "Product SKU is required")
	}
	if strings.TrimSpace(req.FromLocation) == "" || strings.TrimSpace(req.ToLocation) == "" {
		return nil, validationErr("locations", "From and To locations are required")
	}
	if req.Quantity <= 0 {
		return nil, validationErr("quantity", "Quantity must be greater than 0")
	}

	start := time.Now()
	transfer := &models.StockTransfer{
		ID:        uuid.New().String(),
		OrgID:     tenant.OrgID,
		Reference: sql.NullString{String: req.Reference, Valid: req.Reference != ""},
		Quantity:  req.Quantity,
		Status:    models.TransferStatusCompleted,
	}

	err := ts.store.WithinTransferTx(ctx, func(tx TransferTx) error {
		product, err := tx.ProductBySKU(ctx, tenant.OrgID, req.ProductSKU)
		if err != nil {
			return err
		}

		fromLoc, err := tx.LocationByName(ctx, tenant.OrgID, req.FromLocation)
		if err != nil {
			return err
		}
		toLoc, err := tx.LocationByName(ctx, tenant.OrgID, req.ToLocation)
		if err != nil {
			return err
		}

		available, err := tx.BalanceForUpdate(ctx, tenant.OrgID, product.ID, fromLoc.ID)
		if err != nil {
			return err
		}
		if available < req.Quantity {
			return ErrInsufficientStock
		}

		if err := tx.AddBalance(ctx, tenant.OrgID, product.ID, fromLoc.ID, -req.Quantity); err != nil {
			return err
		}
		if err := tx.AddBalance(ctx, tenant.OrgID, product.ID, toLoc.ID, req.Quantity); err != nil {
			return err
		}

		transfer.ProductID = product.ID
		transfer.FromLocationID = fromLoc.ID
		transfer.ToLocationID = toLoc.ID
		return tx.InsertTransfer(ctx, transfer)
	})
	if err != nil {
		switch {
		case err == ErrInsufficientStock:
			util.TransfersRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		case isNotFound(err):
			util.TransfersRejectedTotal.WithLabelValues("not_found").Inc()
		default:
			util.TransfersRejectedTotal.WithLabelValues("tx_error").Inc()
		}
		return nil, err
	}
	util.StockMutationLatency.Observe(time.Since(start).Seconds())
	util.TransfersCompletedTotal.Inc()

	ts.logger.Info("Stock transfer completed",
		zap.String("org_id", tenant.OrgID),
		zap.String("transfer_id", transfer.ID),
		zap.Int("quantity", transfer.Quantity))

	ts.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "stock_transfer",
		EntityID:   transfer.ID,
		Action:     "create",
		Metadata: models.Metadata{
			"product_sku":   req.ProductSKU,
			"from_location": req.FromLocation,
			"to_location":   req.ToLocation,
			"quantity":      req.Quantity,
		},
	})

	if ts.events != nil {
		event := &models.TransferCompletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeTransferCompleted,
				OrgID:     tenant.OrgID,
				Timestamp: time.Now(),
			},
			TransferID:     transfer.ID,
			ProductID:      transfer.ProductID,
			FromLocationID: transfer.FromLocationID,
			ToLocationID:   transfer.ToLocationID,
			Quantity:       transfer.Quantity,
		}
		if err := ts.events.PublishTransferCompleted(ctx, event); err != nil {
			ts.logger.Error("Failed to publish transfer event", zap.Error(err))
		}
	}

	return transfer, nil
}

// GetTransfers lists the tenant's transfers, newest first
func (ts *TransferService) GetTransfers(ctx context.Context, tenant *auth.Context) ([]models.StockTransfer, error) {
	return ts.store.GetTransfers(ctx, tenant.OrgID)
}

// GetBalances lists the tenant's per-location balances
func (ts *TransferService) GetBalances(ctx context.Context, tenant *auth.Context) ([]models.InventoryBalance, error) {
	return ts.store.GetBalances(ctx, tenant.OrgID)
}
