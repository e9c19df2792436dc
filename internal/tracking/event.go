// Package tracking builds and delivers server-side conversion events to the
// configured ad platforms.
package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codshopapp/codshop/internal/models"
)

// Currency is fixed for this deployment.
const Currency = "DZD"

const countryCallingCode = "213"

const (
	EventPurchase         = "Purchase"
	EventViewContent      = "ViewContent"
	EventAddToCart        = "AddToCart"
	EventInitiateCheckout = "InitiateCheckout"
)

// UserData carries only hashed or incidental identifiers. The plaintext phone
// never leaves this package.
type UserData struct {
	HashedPhone string `json:"hashed_phone,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// Event is the platform-agnostic conversion event. ID doubles as the dedup
// key shared with the client-side pixel firing of the same event.
type Event struct {
	Name       string          `json:"name"`
	ID         string          `json:"id"`
	Time       time.Time       `json:"time"`
	OrderID    uuid.UUID       `json:"order_id,omitempty"`
	User       UserData        `json:"user"`
	Value      decimal.Decimal `json:"value"`
	Currency   string          `json:"currency"`
	ContentIDs []string        `json:"content_ids,omitempty"`
}

// NormalizePhone rewrites a national number to international form by
// replacing the leading 0 with the country calling code.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if strings.HasPrefix(p, "0") {
		return countryCallingCode + p[1:]
	}
	return p
}

// HashPhone returns the SHA-256 hex digest of the normalized phone number.
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(NormalizePhone(phone)))
	return hex.EncodeToString(sum[:])
}

// PurchaseEvent builds the conversion event for a freshly admitted order.
func PurchaseEvent(order *models.Order, items []models.OrderItem) Event {
	contentIDs := make([]string, 0, len(items))
	for _, item := range items {
		contentIDs = append(contentIDs, item.ProductID.String())
	}

	eventTime := order.CreatedAt
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	// The client-side pixel fires the same event under this id; sharing it
	// lets the platforms deduplicate. Orders placed without a pixel fall
	// back to the order id.
	eventID := order.ClientEventID
	if eventID == "" {
		eventID = order.ID.String()
	}

	return Event{
		Name:    EventPurchase,
		ID:      eventID,
		Time:    eventTime,
		OrderID: order.ID,
		User: UserData{
			HashedPhone: HashPhone(order.Phone),
			ClientIP:    order.RequesterIP,
			UserAgent:   order.UserAgent,
		},
		Value:      order.Total,
		Currency:   Currency,
		ContentIDs: contentIDs,
	}
}
