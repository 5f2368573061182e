package broker

import (
	"context"
	"fmt"

	"inventra-server/internal/models"
)

// EventPublisher handles publishing domain events. All events for one tenant
// share a partition key so consumers see them in order.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orgKey(orgID string) string {
	return fmt.Sprintf("org-%s", orgID)
}

// PublishAuditRecorded publishes AuditRecorded event
func (ep *EventPublisher) PublishAuditRecorded(ctx context.Context, event *models.AuditRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, orgKey(event.OrgID), event)
}

// PublishOrderApproval publishes OrderApproved/OrderRejected event
func (ep *EventPublisher) PublishOrderApproval(ctx context.Context, event *models.OrderApprovalEvent) error {
	return ep.producer.PublishEvent(ctx, orgKey(event.OrgID), event)
}

// PublishLowStock publishes LowStockDetected event
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	return ep.producer.PublishEvent(ctx, orgKey(event.OrgID), event)
}

// PublishAdjustmentApplied publishes AdjustmentApplied event
func (ep *EventPublisher) PublishAdjustmentApplied(ctx context.Context, event *models.AdjustmentAppliedEvent) error {
	return ep.producer.PublishEvent(ctx, orgKey(event.OrgID), event)
}

// PublishTransferCompleted publishes TransferCompleted event
func (ep *EventPublisher) PublishTransferCompleted(ctx context.Context, event *models.TransferCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, orgKey(event.OrgID), event)
}
