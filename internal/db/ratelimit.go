package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/models"
)

type RateLimitStore struct {
	pool *pgxpool.Pool
}

func NewRateLimitStore(pool *pgxpool.Pool) *RateLimitStore {
	return &RateLimitStore{pool: pool}
}

// ActiveCount returns the count of the counter whose window started after the
// cutoff. A missing or expired counter reads as (0, false).
func (s *RateLimitStore) ActiveCount(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, windowCutoff time.Time) (int, bool, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count FROM rate_limit_counters
		WHERE identifier = $1 AND identifier_type = $2 AND action = $3
		  AND window_start > $4
	`, identifier, string(identifierType), action, windowCutoff).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Record increments the active counter or starts a fresh window. The upsert is
// atomic, but check-then-record as a pair is deliberately not: a burst may be
// over-admitted by a small margin.
func (s *RateLimitStore) Record(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, now, windowCutoff time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rate_limit_counters (identifier, identifier_type, action, count, window_start)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (identifier, identifier_type, action) DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_start > $5 THEN rate_limit_counters.count + 1
				ELSE 1
			END,
			window_start = CASE
				WHEN rate_limit_counters.window_start > $5 THEN rate_limit_counters.window_start
				ELSE $4
			END
	`, identifier, string(identifierType), action, now, windowCutoff)
	return err
}
