package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propertyalerts/internal/types"
)

// AuditRepository appends rows to audit_logs.
type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends an audit entry. ID and CreatedAt are filled in when empty.
func (r *AuditRepository) Insert(ctx context.Context, e types.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, user_id, table_name, action, new_values, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID,
		e.UserID,
		e.TableName,
		e.Action,
		e.NewValues,
		e.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert audit entry", err)
	}
	return nil
}
