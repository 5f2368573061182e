package service

import (
	"context"
	"fmt"
	"testing"

	"inventra-server/internal/models"
	"inventra-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrderStore struct {
	orders map[string]*models.Order
	lines  map[string][]models.OrderLine
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[string]*models.Order),
		lines:  make(map[string][]models.OrderLine),
	}
}

func (f *fakeOrderStore) addOrder(kind, status string) *models.Order {
	o := &models.Order{
		ID:             fmt.Sprintf("order-%d", len(f.orders)+1),
		OrgID:          "org-1",
		Kind:           kind,
		Reference:      "REF-1",
		ApprovalStatus: status,
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrderStore) GetProductBySKU(ctx context.Context, orgID, sku string) (*models.Product, error) {
	return nil, fmt.Errorf("product %s: %w", sku, store.ErrNotFound)
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	copied := *order
	f.orders[order.ID] = &copied
	f.lines[order.ID] = lines
	return nil
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, orgID, kind, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.OrgID != orgID || o.Kind != kind {
		return nil, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderStore) TransitionOrderApproval(ctx context.Context, orgID, kind, id, status, actorID string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.OrgID != orgID || o.Kind != kind || o.ApprovalStatus != models.ApprovalStatusPending {
		return nil, fmt.Errorf("pending order %s: %w", id, store.ErrNotFound)
	}
	o.ApprovalStatus = status
	o.ApprovedBy.String = actorID
	o.ApprovedBy.Valid = true
	copied := *o
	return &copied, nil
}

func (f *fakeOrderStore) GetOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	return f.lines[orderID], nil
}

func (f *fakeOrderStore) GetOrders(ctx context.Context, orgID, kind string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.OrgID == orgID && o.Kind == kind {
			out = append(out, *o)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	calls []string
}

func (r *recordingNotifier) NotifyApproval(ctx context.Context, orgID, title, reference, status string) {
	r.calls = append(r.calls, fmt.Sprintf("%s/%s/%s", title, reference, status))
}

func newOrderService(f *fakeOrderStore) (*OrderService, *recordingAuditor, *recordingNotifier) {
	audit := &recordingAuditor{}
	notifier := &recordingNotifier{}
	return &OrderService{
		store:    f,
		limits:   stubLimits{},
		audit:    audit,
		notifier: notifier,
		logger:   zap.NewNop(),
	}, audit, notifier
}

func TestApproveOrder(t *testing.T) {
	f := newFakeOrderStore()
	pending := f.addOrder(models.OrderKindPurchase, models.ApprovalStatusPending)
	svc, audit, notifier := newOrderService(f)

	order, err := svc.Approve(context.Background(), testTenant(), models.OrderKindPurchase, pending.ID, "approve")
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalStatusApproved, order.ApprovalStatus)
	assert.Equal(t, "user-1", order.ApprovedBy.String)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "approve", audit.entries[0].Action)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Purchase Order Update/REF-1/approved", notifier.calls[0])
}

func TestRejectOrder(t *testing.T) {
	f := newFakeOrderStore()
	pending := f.addOrder(models.OrderKindSales, models.ApprovalStatusPending)
	svc, _, notifier := newOrderService(f)

	order, err := svc.Approve(context.Background(), testTenant(), models.OrderKindSales, pending.ID, "reject")
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalStatusRejected, order.ApprovalStatus)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Sales Order Update/REF-1/rejected", notifier.calls[0])
}

func TestApproveIsOneWay(t *testing.T) {
	f := newFakeOrderStore()
	pending := f.addOrder(models.OrderKindPurchase, models.ApprovalStatusPending)
	svc, _, notifier := newOrderService(f)
	ctx := context.Background()
	tenant := testTenant()

	_, err := svc.Approve(ctx, tenant, models.OrderKindPurchase, pending.ID, "approve")
	require.NoError(t, err)

	// A second transition, including a reversal, must be refused
	_, err = svc.Approve(ctx, tenant, models.OrderKindPurchase, pending.ID, "reject")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	assert.Equal(t, models.ApprovalStatusApproved, f.orders[pending.ID].ApprovalStatus)
	assert.Len(t, notifier.calls, 1, "no notification for the refused transition")
}

func TestApproveUnknownAction(t *testing.T) {
	f := newFakeOrderStore()
	pending := f.addOrder(models.OrderKindPurchase, models.ApprovalStatusPending)
	svc, _, _ := newOrderService(f)

	_, err := svc.Approve(context.Background(), testTenant(), models.OrderKindPurchase, pending.ID, "escalate")
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestApproveWrongKind(t *testing.T) {
	f := newFakeOrderStore()
	pending := f.addOrder(models.OrderKindPurchase, models.ApprovalStatusPending)
	svc, _, _ := newOrderService(f)

	_, err := svc.Approve(context.Background(), testTenant(), models.OrderKindSales, pending.ID, "approve")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, models.ApprovalStatusPending, f.orders[pending.ID].ApprovalStatus)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newOrderService(newFakeOrderStore())
	ctx := context.Background()
	tenant := testTenant()

	cases := []struct {
		name string
		req  *CreateOrderRequest
	}{
		{"missing counterparty", &CreateOrderRequest{Lines: []OrderLineRequest{{ProductSKU: "SKU-1", Quantity: 1}}}},
		{"no lines", &CreateOrderRequest{Counterparty: "Acme"}},
		{"zero quantity line", &CreateOrderRequest{Counterparty: "Acme", Lines: []OrderLineRequest{{ProductSKU: "SKU-1"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tenant, models.OrderKindPurchase, tc.req)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestGateKeyForKind(t *testing.T) {
	assert.Equal(t, "purchase_orders", gateKeyForKind(models.OrderKindPurchase))
	assert.Equal(t, "sales_orders", gateKeyForKind(models.OrderKindSales))
}
