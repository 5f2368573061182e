package worker

import (
	"context"
	"encoding/json"
	"time"

	"inventra-server/internal/broker"
	"inventra-server/internal/models"
	"inventra-server/internal/service"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LockClient is the piece of redis the scanner needs to avoid duplicate
// scans when more than one replica is running
type LockClient interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// LowStockWorker periodically scans every tenant for products at or below
// their threshold and sends a digest to the tenant's admins
type LowStockWorker struct {
	store    *store.Store
	notifier *service.Notifier
	events   *broker.EventPublisher
	locks    LockClient
	interval time.Duration
	logger   *zap.Logger
}

// NewLowStockWorker creates a new low-stock worker
func NewLowStockWorker(
	st *store.Store,
	notifier *service.Notifier,
	events *broker.EventPublisher,
	locks LockClient,
	interval time.Duration,
) *LowStockWorker {
	return &LowStockWorker{
		store:    st,
		notifier: notifier,
		events:   events,
		locks:    locks,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the scan loop until the context is cancelled
func (w *LowStockWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting low-stock worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Low-stock worker context cancelled, stopping")
			return ctx.Err()
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *LowStockWorker) scan(ctx context.Context) {
	if w.locks != nil {
		acquired, err := w.locks.AcquireLock(ctx, "low-stock-scan", w.interval/2)
		if err != nil {
			w.logger.Warn("Failed to acquire scan lock", zap.Error(err))
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := w.locks.ReleaseLock(ctx, "low-stock-scan"); err != nil {
				w.logger.Warn("Failed to release scan lock", zap.Error(err))
			}
		}()
	}

	orgs, err := w.store.GetOrganizations(ctx)
	if err != nil {
		w.logger.Error("Failed to list organizations", zap.Error(err))
		return
	}

	for _, org := range orgs {
		if err := w.scanOrg(ctx, org.ID); err != nil {
			w.logger.Error("Low-stock scan failed",
				zap.String("org_id", org.ID), zap.Error(err))
		}
	}
}

func (w *LowStockWorker) scanOrg(ctx context.Context, orgID string) error {
	products, err := w.store.GetLowStockProducts(ctx, orgID)
	if err != nil {
		return err
	}
	util.LowStockProductsGauge.WithLabelValues(orgID).Set(float64(len(products)))
	if len(products) == 0 {
		return nil
	}

	w.logger.Info("Low stock detected",
		zap.String("org_id", orgID),
		zap.Int("products", len(products)))

	if w.events != nil {
		event := &models.LowStockEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeLowStockDetected,
				OrgID:     orgID,
				Timestamp: time.Now(),
			},
			Products: make([]models.LowStockProduct, 0, len(products)),
		}
		for _, p := range products {
			event.Products = append(event.Products, models.LowStockProduct{
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  p.Quantity,
				Threshold: p.LowStockThreshold,
			})
		}
		if err := w.events.PublishLowStock(ctx, event); err != nil {
			w.logger.Error("Failed to publish low-stock event", zap.Error(err))
		}
	}

	if w.notifier != nil {
		w.notifier.NotifyLowStock(ctx, orgID, products)
	}
	return nil
}

// AuditWorker consumes the domain event stream and mirrors audit events into
// the audit_logs table, so entries published by other services land in the
// same queryable trail
type AuditWorker struct {
	consumer *broker.Consumer
	store    *store.Store
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}
}

// Start starts the audit worker
func (aw *AuditWorker) Start(ctx context.Context) error {
	aw.logger.Info("Starting audit worker")

	return aw.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var baseEvent models.BaseEvent
		if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
			aw.logger.Warn("Failed to unmarshal event", zap.Error(err))
			return nil
		}

		if baseEvent.EventType != models.EventTypeAuditRecorded {
			return nil
		}

		var event models.AuditRecordedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			aw.logger.Warn("Failed to unmarshal audit event", zap.Error(err))
			return nil
		}

		// Entries recorded locally carry their own log id; mirrored ones get
		// the event id so replays stay idempotent on the primary key.
		entry := &models.AuditLog{
			ID:         event.EventID,
			OrgID:      event.OrgID,
			ActorID:    event.ActorID,
			EntityType: event.EntityType,
			Action:     event.Action,
			Metadata:   event.Metadata,
		}
		if event.EntityID != "" {
			entry.EntityID.String = event.EntityID
			entry.EntityID.Valid = true
		}

		if err := aw.store.InsertAuditLogIfAbsent(ctx, entry); err != nil {
			aw.logger.Error("Failed to mirror audit event", zap.Error(err))
		}
		return nil
	})
}

// Stop stops the audit worker
func (aw *AuditWorker) Stop() error {
	aw.logger.Info("Stopping audit worker")
	return aw.consumer.Close()
}
