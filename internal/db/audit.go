package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

// AuditStore is a write target shared with the admin surface. The core uses
// it to flag inconsistencies that need manual reconciliation.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

func (s *AuditStore) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, subject, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.Actor, entry.Action, entry.Subject, entry.Metadata)
	return err
}
