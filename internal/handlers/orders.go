package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/codshopapp/codshop/internal/checkout"
	"github.com/codshopapp/codshop/internal/models"
)

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// CreateOrder is the order submission endpoint. The request carries the cart
// and delivery details; prices are recomputed server side.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	var input checkout.CreateOrderInput
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("failed to decode order submission", "error", err)
		h.writeError(w, r, &checkout.Error{
			Status:  http.StatusBadRequest,
			Reason:  "invalid_body",
			Message: "La demande est invalide.",
		})
		return
	}

	input.RequesterIP = clientIP(r)
	input.UserAgent = r.UserAgent()

	result, err := h.checkout.CreateOrder(ctx, input)
	if err != nil {
		var cerr *checkout.Error
		if errors.As(err, &cerr) {
			if cerr.Status >= http.StatusInternalServerError {
				logger.Error("order admission failed", "reason", cerr.Reason, "error", cerr.Err)
			}
			h.writeError(w, r, cerr)
			return
		}
		logger.Error("order admission failed", "error", err)
		h.writeError(w, r, &checkout.Error{
			Status:  http.StatusInternalServerError,
			Reason:  "internal",
			Message: "Une erreur est survenue. Veuillez réessayer plus tard.",
		})
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]string{
		"order_id":     result.OrderID.String(),
		"public_token": result.PublicToken.String(),
		"total":        result.Total.StringFixed(2),
	})
}

// GetOrder is the unauthenticated status lookup. The public token from the
// confirmation page must accompany the order id; any mismatch is a plain 404.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	publicToken, err := uuid.Parse(r.URL.Query().Get("token"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	order, items, err := h.checkout.LookupOrder(ctx, orderID, publicToken)
	if err != nil {
		var cerr *checkout.Error
		if errors.As(err, &cerr) && cerr.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		h.loggerFromContext(ctx).Error("order lookup failed", "order_id", orderID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, http.StatusOK, orderResponse(order, items))
}

func orderResponse(order *models.Order, items []models.OrderItem) map[string]any {
	responseItems := make([]orderItemResponse, 0, len(items))
	for _, item := range items {
		responseItems = append(responseItems, orderItemResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	return map[string]any{
		"order_id":      order.ID.String(),
		"status":        string(order.Status),
		"full_name":     order.FullName,
		"wilaya_code":   order.WilayaCode,
		"commune":       order.Commune,
		"delivery_type": string(order.DeliveryType),
		"subtotal":      order.Subtotal.StringFixed(2),
		"shipping":      order.Shipping.StringFixed(2),
		"total":         order.Total.StringFixed(2),
		"created_at":    order.CreatedAt.Format(time.RFC3339),
		"items":         responseItems,
	}
}

// Wilayas lists the delivery regions for the storefront checkout form.
func (h *Handlers) Wilayas(w http.ResponseWriter, r *http.Request) {
	codes := h.regions.Codes()
	list := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		list = append(list, map[string]string{
			"code": code,
			"name": h.regions.Name(code),
		})
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"wilayas": list})
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, cerr *checkout.Error) {
	h.writeJSON(w, r, cerr.Status, map[string]string{
		"error":  cerr.Message,
		"reason": cerr.Reason,
	})
}
