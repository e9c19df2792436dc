package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

type ShippingStore struct {
	pool *pgxpool.Pool
}

func NewShippingStore(pool *pgxpool.Pool) *ShippingStore {
	return &ShippingStore{pool: pool}
}

// Rate returns the shipping rate for (wilaya, delivery type) or ErrNotFound.
func (s *ShippingStore) Rate(ctx context.Context, wilayaCode string, deliveryType models.DeliveryType) (*models.ShippingRate, error) {
	var rate models.ShippingRate
	var price pgtype.Numeric
	err := s.pool.QueryRow(ctx, `
		SELECT wilaya_code, delivery_type, price, is_enabled
		FROM shipping_rates
		WHERE wilaya_code = $1 AND delivery_type = $2
	`, wilayaCode, string(deliveryType)).Scan(&rate.WilayaCode, &rate.DeliveryType, &price, &rate.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rate.Price = decimalFromNumeric(price)
	return &rate, nil
}
