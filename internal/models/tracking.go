package models

import (
	"time"

	"github.com/google/uuid"
)

type IdentifierType string

const (
	IdentifierIP    IdentifierType = "ip"
	IdentifierPhone IdentifierType = "phone"
)

// RateLimitCounter is a fixed-window counter. One active window exists per
// (identifier, type, action); an expired window is replaced, never accumulated.
type RateLimitCounter struct {
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"identifier_type"`
	Action         string         `json:"action"`
	Count          int            `json:"count"`
	WindowStart    time.Time      `json:"window_start"`
}

// PendingTrackingEvent is a conversion event parked until its trigger status
// is reached. A scheduled process outside this service drains and marks them.
type PendingTrackingEvent struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	EventName     string    `json:"event_name"`
	EventID       string    `json:"event_id"`
	Payload       []byte    `json:"payload"`
	TriggerStatus string    `json:"trigger_status"`
	Sent          bool      `json:"sent"`
	CreatedAt     time.Time `json:"created_at"`
}

type AuditLogEntry struct {
	ID        uuid.UUID `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Metadata  []byte    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
