package tracking

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codshopapp/codshop/internal/models"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"0551234567", "213551234567"},
		{" 0661234567 ", "213661234567"},
		{"213551234567", "213551234567"},
	}

	for _, tc := range tests {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHashPhoneDeterministic(t *testing.T) {
	t.Parallel()

	first := HashPhone("0551234567")
	second := HashPhone("0551234567")
	if first != second {
		t.Fatalf("digest not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}

	// National and international spellings of the same number must collapse
	// to one digest.
	if HashPhone("213551234567") != first {
		t.Error("normalized forms produced different digests")
	}

	if HashPhone("0661234567") == first {
		t.Error("different numbers produced the same digest")
	}
}

func TestPurchaseEvent(t *testing.T) {
	t.Parallel()

	productA := uuid.New()
	productB := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Phone:         "0551234567",
		Total:         decimal.RequireFromString("5400.00"),
		RequesterIP:   "41.111.1.2",
		UserAgent:     "Mozilla/5.0",
		ClientEventID: "evt-abc",
		CreatedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	items := []models.OrderItem{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 1},
	}

	event := PurchaseEvent(order, items)

	if event.Name != EventPurchase {
		t.Errorf("name = %q", event.Name)
	}
	if event.ID != "evt-abc" {
		t.Errorf("event id = %q, want client event id", event.ID)
	}
	if event.Currency != "DZD" {
		t.Errorf("currency = %q", event.Currency)
	}
	if !event.Value.Equal(order.Total) {
		t.Errorf("value = %s, want %s", event.Value, order.Total)
	}
	if len(event.ContentIDs) != 2 {
		t.Errorf("content ids = %v", event.ContentIDs)
	}
	if event.User.HashedPhone != HashPhone("0551234567") {
		t.Error("hashed phone mismatch")
	}

	// The serialized event must never leak the plaintext phone in any form.
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, leak := range []string{"0551234567", "213551234567"} {
		if strings.Contains(string(payload), leak) {
			t.Errorf("payload leaks phone %q", leak)
		}
	}
}
