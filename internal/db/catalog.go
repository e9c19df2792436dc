package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

// CatalogStore reads the collaborator-owned product table. The pricing
// resolver is its only consumer; catalog CRUD lives elsewhere.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// ProductsByIDs fetches every referenced product in one query. Absent ids are
// simply missing from the result map.
func (s *CatalogStore) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, price, is_active
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[uuid.UUID]models.Product, len(ids))
	for rows.Next() {
		var product models.Product
		var price pgtype.Numeric
		if err := rows.Scan(&product.ID, &product.Name, &price, &product.Active); err != nil {
			return nil, err
		}
		product.Price = decimalFromNumeric(price)
		products[product.ID] = product
	}
	return products, rows.Err()
}
