package service

import (
	"context"
	"database/sql"
	"time"

	"inventra-server/internal/broker"
	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEntry describes one mutation on a tenant-scoped entity
type AuditEntry struct {
	OrgID      string
	ActorID    string
	EntityType string
	EntityID   string
	Action     string
	Metadata   models.Metadata
}

/// Auditor records audit entries. Recording is best-effort: it never returns
// an error, so a failing audit sink cannot roll back the primary operation.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

// Recorder writes audit entries to the database and mirrors them onto the
// event bus
type Recorder struct {
	store  *store.Store
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(st *store.Store, events *broker.EventPublisher) *Recorder {
	return &Recorder{
		store:  st,
		events: events,
		logger: util.GetLogger(),
	}
}

// Record persists the entry and publishes it, logging failures only
func (r *Recorder) Record(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		ID:         uuid.New().String(),
		OrgID:      entry.OrgID,
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   sql.NullString{String: entry.EntityID, Valid: entry.EntityID != ""},
		Action:     entry.Action,
		Metadata:   entry.Metadata,
	}

	if err := r.store.InsertAuditLog(ctx, row); err != nil {
		r.logger.Error("Failed to insert audit log",
			zap.String("org_id", entry.OrgID),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
	}

	if r.events == nil {
		return
	}

	// The event carries the row id, so consumers mirroring the stream into
	// audit_logs skip entries this instance already wrote.
	event := &models.AuditRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   row.ID,
			EventType: models.EventTypeAuditRecorded,
			OrgID:     entry.OrgID,
			Timestamp: time.Now(),
		},
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Metadata:   entry.Metadata,
	}
	if err := r.events.PublishAuditRecorded(ctx, event); err != nil {
		r.logger.Error("Failed to publish audit event", zap.Error(err))
	}
}

// GetAuditLogs lists a tenant's audit trail
func (r *Recorder) GetAuditLogs(ctx context.Context, orgID string, limit int) ([]models.AuditLog, error) {
	return r.store.GetAuditLogs(ctx, orgID, limit)
}
