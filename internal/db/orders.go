package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create persists the order row together with its initial status history
// entry. Items are inserted separately by InsertItems; if that fails the
// caller compensates with Delete.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.PublicToken == uuid.Nil {
		order.PublicToken = uuid.New()
	}
	if order.Status == "" {
		order.Status = models.StatusNew
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, public_token, full_name, phone, wilaya_code, commune, address,
			delivery_type, note, subtotal, shipping, total, status,
			requester_ip, user_agent, client_event_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at
	`,
		order.ID, order.PublicToken, order.FullName, order.Phone,
		order.WilayaCode, order.Commune, order.Address,
		string(order.DeliveryType), order.Note,
		numericFromDecimal(order.Subtotal), numericFromDecimal(order.Shipping),
		numericFromDecimal(order.Total), string(order.Status),
		order.RequesterIP, order.UserAgent, order.ClientEventID,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.CreatedAt = createdAt.Time

	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (order_id, status) VALUES ($1, $2)`,
		order.ID, string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// InsertItems persists the item snapshots for an already-created order.
func (s *OrderStore) InsertItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = orderID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, size, color)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			items[i].ID, items[i].OrderID, items[i].ProductID, items[i].Name,
			numericFromDecimal(items[i].UnitPrice), items[i].Quantity,
			items[i].Size, items[i].Color,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes an order and, through cascades, its items and history.
// Deleting an absent order is a no-op so the compensating path is idempotent.
func (s *OrderStore) Delete(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	return err
}

const orderColumns = `
	id, public_token, full_name, phone, wilaya_code, commune, address,
	delivery_type, note, subtotal, shipping, total, status,
	requester_ip, user_agent, client_event_id, created_at
`

// GetByIDAndToken is the unauthenticated customer lookup. Both values must
// match exactly; anything else reads as not found.
func (s *OrderStore) GetByIDAndToken(ctx context.Context, orderID, publicToken uuid.UUID) (*models.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND public_token = $2`,
		orderID, publicToken,
	)
	return scanOrder(row)
}

// LatestByPhoneSince returns the most recent order for the phone created at or
// after the cutoff, or ErrNotFound.
func (s *OrderStore) LatestByPhoneSince(ctx context.Context, phone string, since time.Time) (*models.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE phone = $1 AND created_at >= $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		phone, since,
	)
	return scanOrder(row)
}

func (s *OrderStore) Items(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, unit_price, quantity, size, color
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		var unitPrice pgtype.Numeric
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&unitPrice, &item.Quantity, &item.Size, &item.Color,
		); err != nil {
			return nil, err
		}
		item.UnitPrice = decimalFromNumeric(unitPrice)
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus is the single mutation path for order status. It validates the
// lifecycle edge under a row lock and appends to the history log.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if !CanTransition(models.OrderStatus(current), next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current, next)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(next), orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO order_status_history (order_id, status) VALUES ($1, $2)`,
		orderID, string(next),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, status, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.OrderStatusChange
	for rows.Next() {
		var change models.OrderStatusChange
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&change.OrderID, &change.Status, &createdAt); err != nil {
			return nil, err
		}
		change.CreatedAt = createdAt.Time
		history = append(history, change)
	}
	return history, rows.Err()
}

// CanTransition reports whether the lifecycle allows moving from one status to
// another. Cancellation is allowed from any pre-delivery state.
func CanTransition(from, to models.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}

	switch from {
	case models.StatusNew:
		return to == models.StatusPendingConfirmation
	case models.StatusPendingConfirmation:
		return to == models.StatusConfirmed
	case models.StatusConfirmed:
		return to == models.StatusSentToCarrier || to == models.StatusRefused || to == models.StatusReturned
	case models.StatusSentToCarrier:
		return to == models.StatusOutForDelivery || to == models.StatusRefused || to == models.StatusReturned
	case models.StatusOutForDelivery:
		return to == models.StatusDelivered || to == models.StatusRefused || to == models.StatusReturned
	}
	return false
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var deliveryType, status string
	var subtotal, shipping, total pgtype.Numeric
	var createdAt pgtype.Timestamptz

	err := row.Scan(
		&order.ID, &order.PublicToken, &order.FullName, &order.Phone,
		&order.WilayaCode, &order.Commune, &order.Address,
		&deliveryType, &order.Note, &subtotal, &shipping, &total, &status,
		&order.RequesterIP, &order.UserAgent, &order.ClientEventID, &createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order.DeliveryType = models.DeliveryType(deliveryType)
	order.Status = models.OrderStatus(status)
	order.Subtotal = decimalFromNumeric(subtotal)
	order.Shipping = decimalFromNumeric(shipping)
	order.Total = decimalFromNumeric(total)
	order.CreatedAt = createdAt.Time
	return &order, nil
}
