package tracking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codshopapp/codshop/internal/models"
)

type fakePendingStore struct {
	mu       sync.Mutex
	inserted []models.PendingTrackingEvent
}

func (f *fakePendingStore) InsertPending(ctx context.Context, event *models.PendingTrackingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, *event)
	return nil
}

func (f *fakePendingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakePlatform struct {
	name string
	err  error

	mu    sync.Mutex
	sends []Event
}

func (f *fakePlatform) Name() string { return f.name }

func (f *fakePlatform) Send(ctx context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, event)
	return nil
}

func (f *fakePlatform) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func testDispatcher(store pendingEventStore, clients ...PlatformClient) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(store, clients, time.Second, logger)
}

func testEvent(name string) Event {
	return Event{
		Name:     name,
		ID:       "evt-1",
		Time:     time.Now(),
		OrderID:  uuid.New(),
		User:     UserData{HashedPhone: HashPhone("0551234567")},
		Value:    decimal.RequireFromString("5400.00"),
		Currency: Currency,
	}
}

func TestProcessConfirmedModeSendsImmediately(t *testing.T) {
	store := &fakePendingStore{}
	meta := &fakePlatform{name: "meta"}
	tiktok := &fakePlatform{name: "tiktok"}
	d := testDispatcher(store, meta, tiktok)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventPurchase),
		PurchaseMode: PurchaseModeConfirmed,
	})

	if meta.sendCount() != 1 || tiktok.sendCount() != 1 {
		t.Errorf("sends = %d/%d, want 1/1", meta.sendCount(), tiktok.sendCount())
	}
	if store.count() != 0 {
		t.Errorf("pending rows = %d, want 0", store.count())
	}
}

func TestProcessDeliveredModeDefers(t *testing.T) {
	store := &fakePendingStore{}
	meta := &fakePlatform{name: "meta"}
	d := testDispatcher(store, meta)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventPurchase),
		PurchaseMode: PurchaseModeDelivered,
	})

	if meta.sendCount() != 0 {
		t.Errorf("sends = %d, want 0 outbound calls in delivered mode", meta.sendCount())
	}
	if store.count() != 1 {
		t.Fatalf("pending rows = %d, want 1", store.count())
	}
	pending := store.inserted[0]
	if pending.TriggerStatus != string(models.StatusDelivered) {
		t.Errorf("trigger status = %q", pending.TriggerStatus)
	}
	if pending.EventID != "evt-1" {
		t.Errorf("event id = %q", pending.EventID)
	}
}

func TestProcessDeliveredModeForcedResendStillSends(t *testing.T) {
	store := &fakePendingStore{}
	meta := &fakePlatform{name: "meta"}
	d := testDispatcher(store, meta)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventPurchase),
		PurchaseMode: PurchaseModeDelivered,
		Forced:       true,
	})

	if meta.sendCount() != 1 {
		t.Errorf("sends = %d, want 1 for forced resend", meta.sendCount())
	}
	if store.count() != 0 {
		t.Errorf("pending rows = %d, want 0", store.count())
	}
}

func TestProcessNonPurchaseEventIgnoresMode(t *testing.T) {
	store := &fakePendingStore{}
	meta := &fakePlatform{name: "meta"}
	d := testDispatcher(store, meta)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventAddToCart),
		PurchaseMode: PurchaseModeDelivered,
	})

	if meta.sendCount() != 1 {
		t.Errorf("sends = %d, want 1", meta.sendCount())
	}
	if store.count() != 0 {
		t.Errorf("pending rows = %d, want 0", store.count())
	}
}

func TestProcessPlatformFailureIsolated(t *testing.T) {
	store := &fakePendingStore{}
	broken := &fakePlatform{name: "meta", err: errors.New("api down")}
	healthy := &fakePlatform{name: "tiktok"}
	d := testDispatcher(store, broken, healthy)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventPurchase),
		PurchaseMode: PurchaseModeConfirmed,
	})

	if healthy.sendCount() != 1 {
		t.Errorf("healthy platform sends = %d, want 1 despite sibling failure", healthy.sendCount())
	}
}

func TestProcessUnconfiguredPlatformSkippedSilently(t *testing.T) {
	store := &fakePendingStore{}
	unconfigured := &fakePlatform{name: "meta", err: ErrNotConfigured}
	healthy := &fakePlatform{name: "tiktok"}
	d := testDispatcher(store, unconfigured, healthy)
	defer d.Close() //nolint:errcheck

	d.process(context.Background(), Request{
		Event:        testEvent(EventPurchase),
		PurchaseMode: PurchaseModeConfirmed,
	})

	if healthy.sendCount() != 1 {
		t.Errorf("healthy platform sends = %d, want 1", healthy.sendCount())
	}
}

func TestEnqueueAndRunRoundTrip(t *testing.T) {
	store := &fakePendingStore{}
	meta := &fakePlatform{name: "meta"}
	d := testDispatcher(store, meta)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	d.Enqueue(ctx, Request{Event: testEvent(EventPurchase), PurchaseMode: PurchaseModeConfirmed})

	deadline := time.After(2 * time.Second)
	for meta.sendCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for background send")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	<-done
}
