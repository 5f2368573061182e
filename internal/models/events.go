package models

import "time"

// Event types
const (
	EventTypeAuditRecorded     = "AUDIT_RECORDED"
	EventTypeOrderApproved     = "ORDER_APPROVED"
	EventTypeOrderRejected     = "ORDER_REJECTED"
	EventTypeLowStockDetected  = "LOW_STOCK_DETECTED"
	EventTypeAdjustmentApplied = "ADJUSTMENT_APPLIED"
	EventTypeTransferCompleted = "TRANSFER_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	OrgID     string    `json:"org_id"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditRecordedEvent mirrors an audit log entry onto the event bus
type AuditRecordedEvent struct {
	BaseEvent
	ActorID    string   `json:"actor_id"`
	EntityType string   `json:"entity_type"`
	EntityID   string   `json:"entity_id,omitempty"`
	Action     string   `json:"action"`
	Metadata   Metadata `json:"metadata,omitempty"`
}

// OrderApprovalEvent published when an order transitions out of pending
type OrderApprovalEvent struct {
	BaseEvent
	OrderID   string `json:"order_id"`
	OrderKind string `json:"order_kind"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
}

// LowStockEvent published by the low-stock scanner
type LowStockEvent struct {
	BaseEvent
	Products []LowStockProduct `json:"products"`
}

// LowStockProduct is one product at or below its threshold
type LowStockProduct struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// AdjustmentAppliedEvent published after an adjustment mutates a product
type AdjustmentAppliedEvent struct {
	BaseEvent
	AdjustmentID string `json:"adjustment_id"`
	ProductID    string `json:"product_id"`
	Delta        int    `json:"delta"`
	Action       string `json:"action"`
}

// TransferCompletedEvent published after a transfer moves stock
type TransferCompletedEvent struct {
	BaseEvent
	TransferID     string `json:"transfer_id"`
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	Quantity       int    `json:"quantity"`
}
