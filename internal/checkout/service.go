package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codshopapp/codshop/internal/db"
	"github.com/codshopapp/codshop/internal/logging"
	"github.com/codshopapp/codshop/internal/models"
	"github.com/codshopapp/codshop/internal/observability"
	"github.com/codshopapp/codshop/internal/ratelimit"
	"github.com/codshopapp/codshop/internal/tracking"
)

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	InsertItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	GetByIDAndToken(ctx context.Context, orderID, publicToken uuid.UUID) (*models.Order, error)
	Items(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type cartStore interface {
	Delete(ctx context.Context, cartID uuid.UUID) error
}

type auditStore interface {
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
}

type botVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) error
}

type rateLimiter interface {
	Exceeded(ctx context.Context, identifier string, identifierType models.IdentifierType, action string) (bool, error)
	Record(ctx context.Context, identifier string, identifierType models.IdentifierType, action string) error
}

type duplicateChecker interface {
	IsDuplicate(ctx context.Context, phone string, items []ItemInput) (bool, error)
}

type quoter interface {
	Quote(ctx context.Context, items []ItemInput, wilayaCode string, deliveryType models.DeliveryType) (*Quote, error)
}

type purchaseEventSettings interface {
	PurchaseEventMode(ctx context.Context) string
}

type trackingDispatcher interface {
	Enqueue(ctx context.Context, req tracking.Request)
}

// Service runs the order admission pipeline: validate, screen, price, persist,
// then fire side effects that must never fail an already admitted order.
type Service struct {
	orders     orderStore
	carts      cartStore
	audit      auditStore
	regions    regionTable
	verifier   botVerifier
	limiter    rateLimiter
	duplicates duplicateChecker
	pricer     quoter
	settings   purchaseEventSettings
	dispatcher trackingDispatcher
	logger     *slog.Logger
}

func NewService(
	orders orderStore,
	carts cartStore,
	audit auditStore,
	regions regionTable,
	verifier botVerifier,
	limiter rateLimiter,
	duplicates duplicateChecker,
	pricer quoter,
	settings purchaseEventSettings,
	dispatcher trackingDispatcher,
	logger *slog.Logger,
) *Service {
	return &Service{
		orders:     orders,
		carts:      carts,
		audit:      audit,
		regions:    regions,
		verifier:   verifier,
		limiter:    limiter,
		duplicates: duplicates,
		pricer:     pricer,
		settings:   settings,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *Service) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// CreateOrderResult is what the storefront needs to show the confirmation
// page and poll order status later.
type CreateOrderResult struct {
	OrderID     uuid.UUID
	PublicToken uuid.UUID
	Total       decimal.Decimal
}

// CreateOrder admits a cash-on-delivery order. Stages run in a fixed order so
// cheap checks shield the database from junk traffic; a failure in any stage
// before persistence leaves no rows behind.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.create_order",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("CreateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("order.admission.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}
	meter.Count("order.admission.received", 1)

	if verr := validateInput(&input, s.regions); verr != nil {
		recordFailure(verr.Reason)
		return nil, verr
	}

	if s.verifier.Enabled() {
		if err := s.verifier.Verify(ctx, input.BotToken, input.RequesterIP); err != nil {
			recordFailure("bot_check_failed")
			logger.Warn("bot verification rejected order", "error", err, "ip", input.RequesterIP)
			return nil, &Error{
				Status:  http.StatusBadRequest,
				Reason:  "bot_check_failed",
				Message: "La vérification de sécurité a échoué. Veuillez réessayer.",
				Err:     err,
			}
		}
	}

	exceeded, err := s.limiter.Exceeded(ctx, input.RequesterIP, models.IdentifierIP, ratelimit.ActionCreateOrder)
	if err != nil {
		recordFailure("rate_limit_lookup_failed")
		return nil, internalError("rate_limit_lookup_failed", err)
	}
	if exceeded {
		recordFailure("ip_rate_limited")
		return nil, rateLimited("ip_rate_limited")
	}

	exceeded, err = s.limiter.Exceeded(ctx, input.Phone, models.IdentifierPhone, ratelimit.ActionCreateOrder)
	if err != nil {
		recordFailure("rate_limit_lookup_failed")
		return nil, internalError("rate_limit_lookup_failed", err)
	}
	if exceeded {
		recordFailure("phone_rate_limited")
		return nil, rateLimited("phone_rate_limited")
	}

	duplicate, err := s.duplicates.IsDuplicate(ctx, input.Phone, input.Items)
	if err != nil {
		recordFailure("duplicate_check_failed")
		return nil, internalError("duplicate_check_failed", err)
	}
	if duplicate {
		recordFailure("duplicate_order")
		return nil, invalidInput("duplicate_order",
			"Une commande identique a déjà été enregistrée il y a quelques minutes.")
	}

	quote, err := s.pricer.Quote(ctx, input.Items, input.WilayaCode, models.DeliveryType(input.DeliveryType))
	if err != nil {
		if cerr, ok := err.(*Error); ok {
			recordFailure(cerr.Reason)
			return nil, cerr
		}
		recordFailure("pricing_failed")
		return nil, internalError("pricing_failed", err)
	}

	order := &models.Order{
		FullName:      input.FullName,
		Phone:         input.Phone,
		WilayaCode:    input.WilayaCode,
		Commune:       input.Commune,
		Address:       input.Address,
		DeliveryType:  models.DeliveryType(input.DeliveryType),
		Note:          input.Note,
		Subtotal:      quote.Subtotal,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		Status:        models.StatusNew,
		RequesterIP:   input.RequesterIP,
		UserAgent:     input.UserAgent,
		ClientEventID: input.ClientEventID,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		recordFailure("order_create_failed")
		return nil, internalError("order_create_failed", err)
	}
	if err := s.orders.InsertItems(ctx, order.ID, quote.Items); err != nil {
		recordFailure("order_items_failed")
		s.compensateCreate(ctx, order.ID, err)
		return nil, internalError("order_items_failed", err)
	}
	meter.Count("order.admitted", 1)
	logger.Info("order admitted",
		"order_id", order.ID,
		"wilaya", order.WilayaCode,
		"delivery_type", order.DeliveryType,
		"total", order.Total.String())

	s.runSideEffects(ctx, order, quote.Items, input.CartDraftID)

	return &CreateOrderResult{
		OrderID:     order.ID,
		PublicToken: order.PublicToken,
		Total:       order.Total,
	}, nil
}

// compensateCreate removes the order row left behind by a failed item insert.
// If even the delete fails the order is flagged for manual reconciliation.
func (s *Service) compensateCreate(ctx context.Context, orderID uuid.UUID, cause error) {
	logger := s.loggerFromContext(ctx)

	err := s.orders.Delete(ctx, orderID)
	if err == nil {
		return
	}
	logger.Error("compensating order delete failed, manual reconciliation required",
		"order_id", orderID, "error", err, "cause", cause)

	entry := &models.AuditLogEntry{
		Actor:   "checkout",
		Action:  "order_reconciliation_required",
		Subject: orderID.String(),
		Metadata: []byte(fmt.Sprintf(
			`{"item_insert_error":%q,"delete_error":%q}`, cause.Error(), err.Error(),
		)),
	}
	if auditErr := s.audit.Insert(ctx, entry); auditErr != nil {
		logger.Error("failed to record reconciliation audit entry", "order_id", orderID, "error", auditErr)
	}
}

// runSideEffects handles everything that happens after the order is durably
// persisted. Failures here are logged and counted but the order stands.
func (s *Service) runSideEffects(ctx context.Context, order *models.Order, items []models.OrderItem, cartDraftID uuid.UUID) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordSideEffectFailure := func(reason string) {
		meter.Count("order.admission.side_effect_failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if err := s.limiter.Record(ctx, order.RequesterIP, models.IdentifierIP, ratelimit.ActionCreateOrder); err != nil {
		recordSideEffectFailure("ip_rate_record_failed")
		logger.Error("failed to record ip rate counter", "order_id", order.ID, "error", err)
	}
	if err := s.limiter.Record(ctx, order.Phone, models.IdentifierPhone, ratelimit.ActionCreateOrder); err != nil {
		recordSideEffectFailure("phone_rate_record_failed")
		logger.Error("failed to record phone rate counter", "order_id", order.ID, "error", err)
	}

	if cartDraftID != uuid.Nil {
		if err := s.carts.Delete(ctx, cartDraftID); err != nil {
			recordSideEffectFailure("cart_cleanup_failed")
			logger.Warn("failed to delete cart draft", "cart_id", cartDraftID, "error", err)
		}
	}

	mode := s.settings.PurchaseEventMode(ctx)
	s.dispatcher.Enqueue(ctx, tracking.Request{
		Event:        tracking.PurchaseEvent(order, items),
		PurchaseMode: mode,
	})
}

// LookupOrder is the unauthenticated status check. The id and token must both
// match; any mismatch reads as not found so tokens cannot be probed.
func (s *Service) LookupOrder(ctx context.Context, orderID, publicToken uuid.UUID) (*models.Order, []models.OrderItem, error) {
	order, err := s.orders.GetByIDAndToken(ctx, orderID, publicToken)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, notFound("order_not_found")
	}
	if err != nil {
		return nil, nil, internalError("order_lookup_failed", err)
	}
	items, err := s.orders.Items(ctx, order.ID)
	if err != nil {
		return nil, nil, internalError("order_items_lookup_failed", err)
	}
	return order, items, nil
}
