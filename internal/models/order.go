package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew                 OrderStatus = "new"
	StatusPendingConfirmation OrderStatus = "pending_confirmation"
	StatusConfirmed           OrderStatus = "confirmed"
	StatusSentToCarrier       OrderStatus = "sent_to_carrier"
	StatusOutForDelivery      OrderStatus = "out_for_delivery"
	StatusDelivered           OrderStatus = "delivered"
	StatusRefused             OrderStatus = "refused"
	StatusReturned            OrderStatus = "returned"
	StatusCancelled           OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusRefused, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryOffice DeliveryType = "office"
	DeliveryHome   DeliveryType = "home"
)

type Order struct {
	ID            uuid.UUID       `json:"id"`
	PublicToken   uuid.UUID       `json:"public_token"`
	FullName      string          `json:"full_name"`
	Phone         string          `json:"phone"`
	WilayaCode    string          `json:"wilaya_code"`
	Commune       string          `json:"commune"`
	Address       string          `json:"address"`
	DeliveryType  DeliveryType    `json:"delivery_type"`
	Note          string          `json:"note"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	RequesterIP   string          `json:"requester_ip"`
	UserAgent     string          `json:"user_agent"`
	ClientEventID string          `json:"client_event_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderItem snapshots the product at order time so historical orders stay
// accurate when the catalog changes later.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type OrderStatusChange struct {
	OrderID   uuid.UUID   `json:"order_id"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Cart is the ephemeral pre-order draft kept for abandoned-cart tracking.
// It is deleted once the order it led to is created.
type Cart struct {
	ID        uuid.UUID       `json:"id"`
	Phone     string          `json:"phone"`
	Items     []byte          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
