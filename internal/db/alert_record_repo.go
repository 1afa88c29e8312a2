package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"propertyalerts/internal/types"
)

// AlertRecordRepository persists dispatch attempts to property_alerts.
type AlertRecordRepository struct {
	db DBTX
}

func NewAlertRecordRepository(db DBTX) *AlertRecordRepository {
	return &AlertRecordRepository{db: db}
}

// Insert appends one record. ID and SentAt are filled in when empty.
func (r *AlertRecordRepository) Insert(ctx context.Context, rec types.AlertRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	var providerID *string
	if rec.ProviderMessageID != "" {
		providerID = &rec.ProviderMessageID
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO property_alerts
		 (id, buyer_id, property_id, alert_type, status, email_template, provider_message_id, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID,
		rec.BuyerID,
		rec.PropertyID,
		string(rec.AlertType),
		string(rec.Status),
		rec.EmailTemplate,
		providerID,
		rec.SentAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert alert record", err)
	}
	return nil
}

// HasDelivered reports whether a sent or delivered record already exists for
// the (buyer, property, alert type) tuple.
func (r *AlertRecordRepository) HasDelivered(ctx context.Context, buyerID, propertyID string, alertType types.AlertType) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM property_alerts
		   WHERE buyer_id = $1 AND property_id = $2 AND alert_type = $3
		     AND status IN ('sent', 'delivered')
		 )`,
		buyerID,
		propertyID,
		string(alertType),
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check alert history", err)
	}
	return exists, nil
}

func alertRecordQuery(f types.AlertRecordFilter) (string, []any, error) {
	q := psql.
		Select("id", "buyer_id", "property_id", "alert_type", "status", "email_template", "provider_message_id", "sent_at").
		From("property_alerts").
		OrderBy("sent_at DESC", "id DESC")

	if f.BuyerID != "" {
		q = q.Where(sq.Eq{"buyer_id": f.BuyerID})
	}
	if f.PropertyID != "" {
		q = q.Where(sq.Eq{"property_id": f.PropertyID})
	}
	if f.AlertType != "" {
		q = q.Where(sq.Eq{"alert_type": string(f.AlertType)})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = types.DefaultPageLimit
	}
	if limit > types.MaxPageLimit {
		limit = types.MaxPageLimit
	}
	return q.Limit(uint64(limit)).ToSql()
}

// List returns delivery history, newest first.
func (r *AlertRecordRepository) List(ctx context.Context, f types.AlertRecordFilter) ([]types.AlertRecord, error) {
	query, args, err := alertRecordQuery(f)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build alert record query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query alert records", err)
	}
	defer rows.Close()

	records := []types.AlertRecord{}
	for rows.Next() {
		var (
			rec               types.AlertRecord
			alertType, status string
			providerID        *string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.BuyerID,
			&rec.PropertyID,
			&alertType,
			&status,
			&rec.EmailTemplate,
			&providerID,
			&rec.SentAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert record", err)
		}
		rec.AlertType = types.AlertType(alertType)
		rec.Status = types.AlertStatus(status)
		rec.ProviderMessageID = deref(providerID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating alert records", err)
	}
	return records, nil
}
