package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

type TrackingEventStore struct {
	pool *pgxpool.Pool
}

func NewTrackingEventStore(pool *pgxpool.Pool) *TrackingEventStore {
	return &TrackingEventStore{pool: pool}
}

func (s *TrackingEventStore) InsertPending(ctx context.Context, event *models.PendingTrackingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	var createdAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pending_tracking_events (id, order_id, event_name, event_id, payload, trigger_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, event.ID, event.OrderID, event.EventName, event.EventID, event.Payload, event.TriggerStatus).Scan(&createdAt)
	if err != nil {
		return err
	}
	event.CreatedAt = createdAt.Time
	return nil
}

// ListUnsent is the read side for the scheduled sender that drains deferred
// events once their trigger status is reached.
func (s *TrackingEventStore) ListUnsent(ctx context.Context, triggerStatus string, limit int) ([]models.PendingTrackingEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, event_name, event_id, payload, trigger_status, sent, created_at
		FROM pending_tracking_events
		WHERE trigger_status = $1 AND NOT sent
		ORDER BY created_at
		LIMIT $2
	`, triggerStatus, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.PendingTrackingEvent
	for rows.Next() {
		var event models.PendingTrackingEvent
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(
			&event.ID, &event.OrderID, &event.EventName, &event.EventID,
			&event.Payload, &event.TriggerStatus, &event.Sent, &createdAt,
		); err != nil {
			return nil, err
		}
		event.CreatedAt = createdAt.Time
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *TrackingEventStore) MarkSent(ctx context.Context, eventID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pending_tracking_events SET sent = TRUE WHERE id = $1`, eventID)
	return err
}
