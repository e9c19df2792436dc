package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartStore struct {
	pool *pgxpool.Pool
}

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Delete removes a cart draft once its order landed. Deleting an absent draft
// is a no-op.
func (s *CartStore) Delete(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}
