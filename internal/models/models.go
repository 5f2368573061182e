package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a tenant-scoped catalog entry. Quantity is the aggregate on-hand
// count and is mutated only through stock adjustments; per-location counts
// live in InventoryBalance and are mutated only through transfers. The two
// ledgers are deliberately independent.
type Product struct {
	ID                string          `db:"id" json:"id"`
	OrgID             string          `db:"org_id" json:"-"`
	SKU               string          `db:"sku" json:"sku"`
	Name              string          `db:"name" json:"name"`
	CategoryID        sql.NullString  `db:"category_id" json:"-"`
	CategoryName      sql.NullString  `db:"category_name" json:"category_name,omitempty"`
	Quantity          int             `db:"quantity" json:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
	LowStockThreshold int             `db:"low_stock_threshold" json:"low_stock_threshold"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Category groups products within a tenant
type Category struct {
	ID        string    `db:"id" json:"id"`
	OrgID     string    `db:"org_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Supplier is a purchase-order counterparty
type Supplier struct {
	ID        string         `db:"id" json:"id"`
	OrgID     string         `db:"org_id" json:"-"`
	Name      string         `db:"name" json:"name"`
	Email     sql.NullString `db:"email" json:"email,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Customer is a sales-order counterparty
type Customer struct {
	ID        string         `db:"id" json:"id"`
	OrgID     string         `db:"org_id" json:"-"`
	Name      string         `db:"name" json:"name"`
	Email     sql.NullString `db:"email" json:"email,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Location is a stock-holding site (warehouse, store, van)
type Location struct {
	ID        string    `db:"id" json:"id"`
	OrgID     string    `db:"org_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StockAdjustment is a reason-coded signed change to a product's aggregate
// on-hand quantity. Editing or deleting one must reconcile the product.
type StockAdjustment struct {
	ID            string         `db:"id" json:"id"`
	OrgID         string         `db:"org_id" json:"-"`
	ProductID     string         `db:"product_id" json:"product_id"`
	LocationID    string         `db:"location_id" json:"location_id"`
	QuantityDelta int            `db:"quantity_delta" json:"quantity_delta"`
	Reason        string         `db:"reason" json:"reason"`
	ProductSKU    sql.NullString `db:"product_sku" json:"product_sku,omitempty"`
	ProductName   sql.NullString `db:"product_name" json:"product_name,omitempty"`
	LocationName  sql.NullString `db:"location_name" json:"location_name,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// StockTransfer moves quantity between two locations for one product.
/// Transfers are immediate: rows are inserted already completed.
type StockTransfer struct {
	ID             string         `db:"id" json:"id"`
	OrgID          string         `db:"org_id" json:"-"`
	Reference      sql.NullString `db:"reference" json:"reference,omitempty"`
	ProductID      string         `db:"product_id" json:"product_id"`
	FromLocationID string         `db:"from_location_id" json:"from_location_id"`
	ToLocationID   string         `db:"to_location_id" json:"to_location_id"`
	Quantity       int            `db:"quantity" json:"quantity"`
	Status         string         `db:"status" json:"status"`
	ProductSKU     sql.NullString `db:"product_sku" json:"product_sku,omitempty"`
	FromLocation   sql.NullString `db:"from_location" json:"from_location,omitempty"`
	ToLocation     sql.NullString `db:"to_location" json:"to_location,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// InventoryBalance is the per product x location ledger. Never negative.
type InventoryBalance struct {
	OrgID      string    `db:"org_id" json:"-"`
	ProductID  string    `db:"product_id" json:"product_id"`
	LocationID string    `db:"location_id" json:"location_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Order is a purchase or sales order, discriminated by Kind
type Order struct {
	ID               string          `db:"id" json:"id"`
	OrgID            string          `db:"org_id" json:"-"`
	Kind             string          `db:"kind" json:"kind"`
	Reference        string          `db:"reference" json:"reference"`
	CounterpartyID   string          `db:"counterparty_id" json:"counterparty_id"`
	CounterpartyName sql.NullString  `db:"counterparty_name" json:"counterparty_name,omitempty"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	ApprovalStatus   string          `db:"approval_status" json:"approval_status"`
	ApprovedBy       sql.NullString  `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt       sql.NullTime    `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderLine is one line of an order
type OrderLine struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Order kinds
const (
	OrderKindPurchase = "purchase"
	OrderKindSales    = "sales"
)

// Approval statuses
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Transfer statuses
const (
	TransferStatusCompleted = "completed"
)

// PlanLimits maps a resource key to a numeric cap or a boolean feature flag.
// Stored as jsonb.
type PlanLimits map[string]interface{}

// NumericLimit returns the cap for key if one is set. A missing or boolean
// entry means the resource is not gated.
func (pl PlanLimits) NumericLimit(key string) (int, bool) {
	switch n := pl[key].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// FeatureEnabled reports a boolean limit entry; non-boolean entries default on.
func (pl PlanLimits) FeatureEnabled(key string) bool {
	if v, ok := pl[key].(bool); ok {
		return v
	}
	return true
}

func (pl PlanLimits) Value() (driver.Value, error) {
	return json.Marshal(pl)
}

func (pl *PlanLimits) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, pl)
	case string:
		return json.Unmarshal([]byte(v), pl)
	case nil:
		*pl = PlanLimits{}
		return nil
	default:
		return fmt.Errorf("unsupported type for PlanLimits: %T", src)
	}
}

// Plan is a billing tier with per-resource limits
type Plan struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	StripePriceID sql.NullString `db:"stripe_price_id" json:"stripe_price_id,omitempty"`
	Limits        PlanLimits     `db:"limits" json:"limits"`
}

// Subscription links a tenant to its active plan
type Subscription struct {
	OrgID             string       `db:"org_id" json:"-"`
	PlanID            string       `db:"plan_id" json:"plan_id"`
	Status            string       `db:"status" json:"status"`
	CancelAtPeriodEnd bool         `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CurrentPeriodEnd  sql.NullTime `db:"current_period_end" json:"current_period_end,omitempty"`
}

// Metadata is a free-form jsonb column
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(Metadata{})
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = Metadata{}
		return nil
	default:
		return fmt.Errorf("unsupported type for Metadata: %T", src)
	}
}

// AuditLog records one mutation on a tenant-scoped entity
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	OrgID      string         `db:"org_id" json:"-"`
	ActorID    string         `db:"actor_id" json:"actor_id"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   sql.NullString `db:"entity_id" json:"entity_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	Metadata   Metadata       `db:"metadata" json:"metadata"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Profile is a tenant member as seen by the role guard
type Profile struct {
	ID        string    `db:"id" json:"id"`
	OrgID     string    `db:"org_id" json:"-"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Organization is the tenant record
type Organization struct {
	ID      string         `db:"id" json:"id"`
	Name    string         `db:"name" json:"name"`
	Email   sql.NullString `db:"email" json:"email,omitempty"`
	LogoURL sql.NullString `db:"logo_url" json:"logo_url,omitempty"`
}
