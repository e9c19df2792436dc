package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codshopapp/codshop/internal/checkout"
	"github.com/codshopapp/codshop/internal/config"
	"github.com/codshopapp/codshop/internal/logging"
	"github.com/codshopapp/codshop/internal/models"
	"github.com/codshopapp/codshop/internal/regions"
)

const maxOrderBodyBytes = 1 << 20 // 1 MB

type checkoutService interface {
	CreateOrder(ctx context.Context, input checkout.CreateOrderInput) (*checkout.CreateOrderResult, error)
	LookupOrder(ctx context.Context, orderID, publicToken uuid.UUID) (*models.Order, []models.OrderItem, error)
}

// Handlers provides the public storefront HTTP API.
type Handlers struct {
	config   *config.Config
	db       *pgxpool.Pool
	checkout checkoutService
	regions  *regions.Table
	logger   *slog.Logger
}

type Dependencies struct {
	Config   *config.Config
	DB       *pgxpool.Pool
	Checkout checkoutService
	Regions  *regions.Table
	Logger   *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.Checkout == nil {
		return nil, fmt.Errorf("handlers dependencies: checkout is required")
	}
	if deps.Regions == nil {
		return nil, fmt.Errorf("handlers dependencies: regions is required")
	}

	return &Handlers{
		config:   deps.Config,
		db:       deps.DB,
		checkout: deps.Checkout,
		regions:  deps.Regions,
		logger:   logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}
