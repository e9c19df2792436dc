package checkout

import (
	"testing"

	"github.com/google/uuid"
)

type fakeRegions struct {
	codes map[string]bool
}

func (f fakeRegions) Exists(code string) bool { return f.codes[code] }

func testRegions() fakeRegions {
	return fakeRegions{codes: map[string]bool{"16": true, "31": true}}
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		FullName:     "Amine Benali",
		Phone:        "0551234567",
		WilayaCode:   "16",
		Commune:      "Bab El Oued",
		DeliveryType: "office",
		Items:        []ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	}
}

func TestValidateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(*CreateOrderInput)
		wantReason string
	}{
		{"valid office order", func(in *CreateOrderInput) {}, ""},
		{"valid home order", func(in *CreateOrderInput) {
			in.DeliveryType = "home"
			in.Address = "12 rue Didouche Mourad"
		}, ""},
		{"missing name", func(in *CreateOrderInput) { in.FullName = "  " }, "missing_name"},
		{"empty phone", func(in *CreateOrderInput) { in.Phone = "" }, "invalid_phone"},
		{"landline prefix", func(in *CreateOrderInput) { in.Phone = "0211234567" }, "invalid_phone"},
		{"too short", func(in *CreateOrderInput) { in.Phone = "055123456" }, "invalid_phone"},
		{"too long", func(in *CreateOrderInput) { in.Phone = "05512345678" }, "invalid_phone"},
		{"international form rejected", func(in *CreateOrderInput) { in.Phone = "213551234567" }, "invalid_phone"},
		{"unknown wilaya", func(in *CreateOrderInput) { in.WilayaCode = "99" }, "invalid_wilaya"},
		{"unknown delivery type", func(in *CreateOrderInput) { in.DeliveryType = "pigeon" }, "invalid_delivery_type"},
		{"home without address", func(in *CreateOrderInput) {
			in.DeliveryType = "home"
			in.Address = ""
		}, "missing_address"},
		{"empty cart", func(in *CreateOrderInput) { in.Items = nil }, "empty_cart"},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "invalid_cart_item"},
		{"nil product id", func(in *CreateOrderInput) { in.Items[0].ProductID = uuid.Nil }, "invalid_cart_item"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := validInput()
			tc.mutate(&input)

			err := validateInput(&input, testRegions())
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", err.Reason, tc.wantReason)
			}
			if err.Status != 400 {
				t.Errorf("status = %d, want 400", err.Status)
			}
			if err.Message == "" {
				t.Error("expected a customer-facing message")
			}
		})
	}
}

// The first failing rule determines the message even when several fields are
// bad at once.
func TestValidateInputFirstFailureWins(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.FullName = ""
	input.Phone = "bogus"
	input.WilayaCode = "99"

	err := validateInput(&input, testRegions())
	if err == nil || err.Reason != "missing_name" {
		t.Fatalf("expected missing_name, got %v", err)
	}
}

func TestValidateInputTrimsFields(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.FullName = "  Amine Benali  "
	input.Phone = " 0551234567 "

	if err := validateInput(&input, testRegions()); err != nil {
		t.Fatalf("expected valid after trimming, got %v", err)
	}
	if input.FullName != "Amine Benali" || input.Phone != "0551234567" {
		t.Errorf("fields not normalized: %q / %q", input.FullName, input.Phone)
	}
}
