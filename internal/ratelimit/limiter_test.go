package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codshopapp/codshop/internal/models"
)

type fakeCounterStore struct {
	count    int
	active   bool
	err      error
	recorded int

	gotCutoff time.Time
}

func (f *fakeCounterStore) ActiveCount(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, windowCutoff time.Time) (int, bool, error) {
	f.gotCutoff = windowCutoff
	return f.count, f.active, f.err
}

func (f *fakeCounterStore) Record(ctx context.Context, identifier string, identifierType models.IdentifierType, action string, now, windowCutoff time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.recorded++
	return nil
}

func TestExceeded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		identifierType models.IdentifierType
		count          int
		active         bool
		want           bool
	}{
		{"no counter yet", models.IdentifierIP, 0, false, false},
		{"ip below threshold", models.IdentifierIP, 9, true, false},
		{"ip at threshold", models.IdentifierIP, 10, true, true},
		{"ip above threshold", models.IdentifierIP, 25, true, true},
		{"phone below threshold", models.IdentifierPhone, 2, true, false},
		{"phone at threshold", models.IdentifierPhone, 3, true, true},
		{"expired counter ignored even with high count", models.IdentifierPhone, 50, false, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeCounterStore{count: tc.count, active: tc.active}
			limiter := New(store, 10, 3)

			got, err := limiter.Exceeded(context.Background(), "x", tc.identifierType, ActionCreateOrder)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Exceeded() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExceededCutoffIsOneHour(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := New(store, 10, 3)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	if _, err := limiter.Exceeded(context.Background(), "x", models.IdentifierIP, ActionCreateOrder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fixed.Add(-time.Hour); !store.gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.gotCutoff, want)
	}
}

func TestExceededStoreError(t *testing.T) {
	store := &fakeCounterStore{err: errors.New("boom")}
	limiter := New(store, 10, 3)

	if _, err := limiter.Exceeded(context.Background(), "x", models.IdentifierIP, ActionCreateOrder); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecord(t *testing.T) {
	store := &fakeCounterStore{}
	limiter := New(store, 10, 3)

	if err := limiter.Record(context.Background(), "0551234567", models.IdentifierPhone, ActionCreateOrder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.recorded != 1 {
		t.Errorf("recorded %d times, want 1", store.recorded)
	}
}
