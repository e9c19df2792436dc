package db

import (
	"testing"

	"github.com/codshopapp/codshop/internal/models"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from models.OrderStatus
		to   models.OrderStatus
		want bool
	}{
		{"new to pending confirmation", models.StatusNew, models.StatusPendingConfirmation, true},
		{"pending to confirmed", models.StatusPendingConfirmation, models.StatusConfirmed, true},
		{"confirmed to carrier", models.StatusConfirmed, models.StatusSentToCarrier, true},
		{"carrier to out for delivery", models.StatusSentToCarrier, models.StatusOutForDelivery, true},
		{"out for delivery to delivered", models.StatusOutForDelivery, models.StatusDelivered, true},
		{"confirmed to refused", models.StatusConfirmed, models.StatusRefused, true},
		{"out for delivery to returned", models.StatusOutForDelivery, models.StatusReturned, true},
		{"new to cancelled", models.StatusNew, models.StatusCancelled, true},
		{"out for delivery to cancelled", models.StatusOutForDelivery, models.StatusCancelled, true},
		{"new skips to confirmed", models.StatusNew, models.StatusConfirmed, false},
		{"new to refused", models.StatusNew, models.StatusRefused, false},
		{"pending to refused", models.StatusPendingConfirmation, models.StatusRefused, false},
		{"delivered is terminal", models.StatusDelivered, models.StatusReturned, false},
		{"cancelled is terminal", models.StatusCancelled, models.StatusConfirmed, false},
		{"refused is terminal", models.StatusRefused, models.StatusCancelled, false},
		{"backwards move", models.StatusConfirmed, models.StatusNew, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
