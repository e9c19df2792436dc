// Package ratelimit enforces fixed-window counters against the shared store.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/codshopapp/codshop/internal/models"
)

const ActionCreateOrder = "create_order"

// Window is fixed at one hour from the counter's window_start. Counters whose
// window started earlier are treated as absent.
const Window = time.Hour

type counterStore interface {
	ActiveCount(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, windowCutoff time.Time) (int, bool, error)
	Record(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, now, windowCutoff time.Time) error
}

type Limiter struct {
	store      counterStore
	ipLimit    int
	phoneLimit int
	now        func() time.Time
}

func New(store counterStore, ipLimit, phoneLimit int) *Limiter {
	return &Limiter{
		store:      store,
		ipLimit:    ipLimit,
		phoneLimit: phoneLimit,
		now:        time.Now,
	}
}

// Exceeded reports whether the identifier's active counter has reached its
// threshold. There is no lock between this check and a later Record; bursts
// may be over-admitted by a small margin, which is accepted.
func (l *Limiter) Exceeded(ctx context.Context, identifier string, identifierType models.IdentifierType, action string) (bool, error) {
	count, active, err := l.store.ActiveCount(ctx, identifier, identifierType, action, l.now().Add(-Window))
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	if !active {
		return false, nil
	}
	return count >= l.threshold(identifierType), nil
}

// Record books one accepted attempt. Call only after the guarded action has
// durably succeeded, so failed requests are never penalized.
func (l *Limiter) Record(ctx context.Context, identifier string, identifierType models.IdentifierType, action string) error {
	now := l.now()
	if err := l.store.Record(ctx, identifier, identifierType, action, now, now.Add(-Window)); err != nil {
		return fmt.Errorf("failed to record rate limit usage: %w", err)
	}
	return nil
}

func (l *Limiter) threshold(identifierType models.IdentifierType) int {
	if identifierType == models.IdentifierPhone {
		return l.phoneLimit
	}
	return l.ipLimit
}
