package store

import (
	"context"

	"inventra-server/internal/models"
)

// InsertAuditLog appends one audit entry
func (s *Store) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO audit_logs (id, org_id, actor_id, entity_type, entity_id, action, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		entry.ID, entry.OrgID, entry.ActorID, entry.EntityType,
		entry.EntityID, entry.Action, entry.Metadata,
	).Scan(&entry.CreatedAt)
}

// InsertAuditLogIfAbsent appends one audit entry, skipping duplicates by id.
// Used when mirroring entries off the event stream, where redelivery is
// expected.
func (s *Store) InsertAuditLogIfAbsent(ctx context.Context, entry *models.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, org_id, actor_id, entity_type, entity_id, action, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.OrgID, entry.ActorID, entry.EntityType,
		entry.EntityID, entry.Action, entry.Metadata)
	return err
}

// GetAuditLogs retrieves a tenant's audit trail, newest first
func (s *Store) GetAuditLogs(ctx context.Context, orgID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	err := s.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_logs
		WHERE org_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	return entries, err
}
