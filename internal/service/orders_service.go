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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApprovalNotifier delivers best-effort approval notifications; failures are
// logged by the implementation and never surface here
type ApprovalNotifier interface {
	NotifyApproval(ctx context.Context, orgID, title, reference, status string)
}

// OrderStore is the persistence surface of the order workflow
type OrderStore interface {
	GetProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error
	GetOrderByID(ctx context.Context, orgID, kind, id string) (*models.Order, error)
	TransitionOrderApproval(ctx context.Context, orgID, kind, id, status, actorID string) (*models.Order, error)
	GetOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	GetOrders(ctx context.Context, orgID, kind string) ([]models.Order, error)
}

// OrderService creates purchase/sales orders and runs the one-way approval
// workflow
type OrderService struct {
	store    OrderStore
	catalog  *CatalogService
	limits   LimitChecker
	audit    Auditor
	notifier ApprovalNotifier
	events   *broker.EventPublisher
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	st *store.Store,
	catalog *CatalogService,
	limits LimitChecker,
	audit Auditor,
	notifier ApprovalNotifier,
	events *broker.EventPublisher,
) *OrderService {
	return &OrderService{
		store:    st,
		catalog:  catalog,
		limits:   limits,
		audit:    audit,
		notifier: notifier,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// OrderLineRequest is one requested line; unit price defaults to the
// product's catalog price when omitted
type OrderLineRequest struct {
	ProductSKU string           `json:"product_sku"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderRequest carries a new purchase or sales order. The counterparty
// (supplier for purchases, customer for sales) is resolved find-or-create.
type CreateOrderRequest struct {
	Reference    string             `json:"reference"`
	Counterparty string             `json:"counterparty"`
	Lines        []OrderLineRequest `json:"lines"`
}

func gateKeyForKind(kind string) string {
	if kind == models.OrderKindPurchase {
		return "purchase_orders"
	}
	return "sales_orders"
}

// CreateOrder inserts a pending order with its lines after the usage gate
func (os *OrderService) CreateOrder(ctx context.Context, tenant *auth.Context, kind string, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if strings.TrimSpace(req.Counterparty) == "" {
		return nil, validationErr("counterparty", "Counterparty is required")
	}
	if len(req.Lines) == 0 {
		return nil, validationErr("lines", "At least one line is required")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, validationErr("lines", "Line quantity must be greater than 0")
		}
	}

	if err := enforceLimit(ctx, os.limits, tenant.OrgID, gateKeyForKind(kind)); err != nil {
		return nil, err
	}

	var counterpartyID string
	if kind == models.OrderKindPurchase {
		supplier, err := os.catalog.FindOrCreateSupplier(ctx, tenant, req.Counterparty)
		if err != nil {
			return nil, err
		}
		counterpartyID = supplier.ID
	} else {
		customer, err := os.catalog.FindOrCreateCustomer(ctx, tenant, req.Counterparty)
		if err != nil {
			return nil, err
		}
		counterpartyID = customer.ID
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		OrgID:          tenant.OrgID,
		Kind:           kind,
		Reference:      req.Reference,
		CounterpartyID: counterpartyID,
		ApprovalStatus: models.ApprovalStatusPending,
	}

	lines := make([]models.OrderLine, 0, len(req.Lines))
	total := decimal.Zero
	for _, lineReq := range req.Lines {
		product, err := os.store.GetProductBySKU(ctx, tenant.OrgID, lineReq.ProductSKU)
		if err != nil {
			return nil, err
		}
		unitPrice := product.UnitPrice
		if lineReq.UnitPrice != nil {
			unitPrice = *lineReq.UnitPrice
		}
		lines = append(lines, models.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  lineReq.Quantity,
			UnitPrice: unitPrice,
		})
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(lineReq.Quantity))))
	}
	order.TotalAmount = total

	if err := os.store.CreateOrder(ctx, order, lines); err != nil {
		return nil, err
	}
	util.OrdersCreatedTotal.WithLabelValues(kind).Inc()

	os.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: kind + "_order",
		EntityID:   order.ID,
		Action:     "create",
		Metadata: models.Metadata{
			"reference":    order.Reference,
			"counterparty": req.Counterparty,
			"total_amount": order.TotalAmount.String(),
		},
	})
	return order, nil
}

// Approve moves a pending order to approved or rejected. The transition is
// one-way; audit and notification are best-effort side effects that cannot
// roll it back.
func (os *OrderService) Approve(ctx context.Context, tenant *auth.Context, kind, id, action string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Approve")
	defer span.End()

	if strings.TrimSpace(id) == "" || strings.TrimSpace(action) == "" {
		return nil, validationErr("id", "Missing id or action")
	}

	var status string
	switch action {
	case "approve":
		status = models.ApprovalStatusApproved
	case "reject":
		status = models.ApprovalStatusRejected
	default:
		return nil, validationErr("action", "Action must be approve or reject")
	}

	existing, err := os.store.GetOrderByID(ctx, tenant.OrgID, kind, id)
	if err != nil {
		return nil, err
	}
	if existing.ApprovalStatus != models.ApprovalStatusPending {
		return nil, &ConflictError{Message: "order is no longer pending"}
	}

	order, err := os.store.TransitionOrderApproval(ctx, tenant.OrgID, kind, id, status, tenant.UserID)
	if err != nil {
		return nil, err
	}
	util.OrderApprovalsTotal.WithLabelValues(status).Inc()

	os.logger.Info("Order approval transition",
		zap.String("org_id", tenant.OrgID),
		zap.String("order_id", id),
		zap.String("status", status))

	os.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: kind + "_order",
		EntityID:   id,
		Action:     action,
	})

	if os.events != nil {
		eventType := models.EventTypeOrderApproved
		if status == models.ApprovalStatusRejected {
			eventType = models.EventTypeOrderRejected
		}
		event := &models.OrderApprovalEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: eventType,
				OrgID:     tenant.OrgID,
				Timestamp: time.Now(),
			},
			OrderID:   id,
			OrderKind: kind,
			Reference: order.Reference,
			Status:    status,
			ActorID:   tenant.UserID,
		}
		if err := os.events.PublishOrderApproval(ctx, event); err != nil {
			os.logger.Error("Failed to publish approval event", zap.Error(err))
		}
	}

	if os.notifier != nil {
		title := "Purchase Order Update"
		if kind == models.OrderKindSales {
			title = "Sales Order Update"
		}
		reference := order.Reference
		if reference == "" {
			reference = id
		}
		os.notifier.NotifyApproval(ctx, tenant.OrgID, title, reference, status)
	}

	return order, nil
}

// GetOrder retrieves an order with its lines
func (os *OrderService) GetOrder(ctx context.Context, tenant *auth.Context, kind, id string) (*models.Order, []models.OrderLine, error) {
	order, err := os.store.GetOrderByID(ctx, tenant.OrgID, kind, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := os.store.GetOrderLines(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, lines, nil
}

// GetOrders lists the tenant's orders of one kind, newest first
func (os *OrderService) GetOrders(ctx context.Context, tenant *auth.Context, kind string) ([]models.Order, error) {
	return os.store.GetOrders(ctx, tenant.OrgID, kind)
}

var _ OrderStore = (*store.Store)(nil)
