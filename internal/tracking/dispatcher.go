package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"golang.org/x/sync/errgroup"

	"github.com/codshopapp/codshop/internal/models"
)

const dispatchTopic = "tracking.dispatch"

// Purchase trigger modes, mirroring the settings collaborator's values.
const (
	PurchaseModeConfirmed = "confirmed"
	PurchaseModeDelivered = "delivered"
)

// PlatformClient is one ad platform's server-side events API.
type PlatformClient interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

type pendingEventStore interface {
	InsertPending(ctx context.Context, event *models.PendingTrackingEvent) error
}

// Request is one dispatch task. PurchaseMode is resolved by the caller from
// the settings collaborator at enqueue time, never read as ambient state.
type Request struct {
	Event        Event  `json:"event"`
	PurchaseMode string `json:"purchase_mode"`
	Forced       bool   `json:"forced"`
}

// Dispatcher fans conversion events out to every configured platform through
// an in-process queue, decoupled from the caller's response path.
type Dispatcher struct {
	pubSub  *gochannel.GoChannel
	store   pendingEventStore
	clients []PlatformClient
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(store pendingEventStore, clients []PlatformClient, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewSlogLogger(logger),
	)
	return &Dispatcher{
		pubSub:  pubSub,
		store:   store,
		clients: clients,
		timeout: timeout,
		logger:  logger,
	}
}

// Enqueue hands the request to the background sender. It never returns an
// error to the caller: a dispatch problem must not fail an admitted order.
func (d *Dispatcher) Enqueue(ctx context.Context, req Request) {
	payload, err := json.Marshal(req)
	if err != nil {
		d.logger.Error("failed to marshal tracking request", "error", err, "event_id", req.Event.ID)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.pubSub.Publish(dispatchTopic, msg); err != nil {
		d.logger.Error("failed to enqueue tracking request", "error", err, "event_id", req.Event.ID)
	}
}

// Run consumes dispatch tasks until the context is cancelled or the queue is
// closed. Intended to run in its own goroutine for the process lifetime.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.pubSub.Subscribe(ctx, dispatchTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		var req Request
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			d.logger.Error("failed to decode tracking request", "error", err)
			msg.Ack()
			continue
		}
		d.process(ctx, req)
		msg.Ack()
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.pubSub.Close()
}

func (d *Dispatcher) process(ctx context.Context, req Request) {
	logger := d.logger.With("event", req.Event.Name, "event_id", req.Event.ID)

	if req.Event.Name == EventPurchase && req.PurchaseMode == PurchaseModeDelivered && !req.Forced {
		if err := d.deferEvent(ctx, req.Event); err != nil {
			logger.Error("failed to queue deferred tracking event", "error", err)
			return
		}
		logger.Info("tracking event deferred until delivery")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range d.clients {
		client := client
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()

			err := client.Send(sendCtx, req.Event)
			switch {
			case err == nil:
				logger.Info("tracking event sent", "platform", client.Name())
			case errors.Is(err, ErrNotConfigured):
				logger.Debug("tracking platform skipped", "platform", client.Name())
			default:
				// Best effort: one platform failing never blocks the others,
				// and immediate sends are not retried.
				logger.Error("tracking send failed", "platform", client.Name(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) deferEvent(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.store.InsertPending(ctx, &models.PendingTrackingEvent{
		OrderID:       event.OrderID,
		EventName:     event.Name,
		EventID:       event.ID,
		Payload:       payload,
		TriggerStatus: string(models.StatusDelivered),
	})
}
