package checkout

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/codshopapp/codshop/internal/models"
)

// Algerian mobile numbers: ten digits, leading 05/06/07.
var phonePattern = regexp.MustCompile(`^0[567][0-9]{8}$`)

// ItemInput is one cart line as submitted by the storefront.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// CreateOrderInput is the raw order submission. RequesterIP and UserAgent are
// filled in by the handler, not trusted from the body.
type CreateOrderInput struct {
	FullName      string      `json:"full_name"`
	Phone         string      `json:"phone"`
	WilayaCode    string      `json:"wilaya_code"`
	Commune       string      `json:"commune"`
	DeliveryType  string      `json:"delivery_type"`
	Address       string      `json:"address"`
	Note          string      `json:"note"`
	Items         []ItemInput `json:"cart_items"`
	BotToken      string      `json:"bot_challenge_token"`
	ClientEventID string      `json:"client_event_id"`
	CartDraftID   uuid.UUID   `json:"cart_draft_id"`

	RequesterIP string `json:"-"`
	UserAgent   string `json:"-"`
}

type regionTable interface {
	Exists(code string) bool
}

// validateInput checks the submission field by field and normalizes whitespace
// in place. The first failing rule wins; checks run in a fixed order so the
// customer always sees the same message for the same mistake.
func validateInput(input *CreateOrderInput, regions regionTable) *Error {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.WilayaCode = strings.TrimSpace(input.WilayaCode)
	input.Commune = strings.TrimSpace(input.Commune)
	input.Address = strings.TrimSpace(input.Address)
	input.Note = strings.TrimSpace(input.Note)

	if input.FullName == "" {
		return invalidInput("missing_name", "Veuillez saisir votre nom complet.")
	}
	if !phonePattern.MatchString(input.Phone) {
		return invalidInput("invalid_phone", "Veuillez saisir un numéro de téléphone valide (ex: 0550123456).")
	}
	if !regions.Exists(input.WilayaCode) {
		return invalidInput("invalid_wilaya", "La wilaya sélectionnée est invalide.")
	}

	deliveryType := models.DeliveryType(input.DeliveryType)
	if deliveryType != models.DeliveryOffice && deliveryType != models.DeliveryHome {
		return invalidInput("invalid_delivery_type", "Le mode de livraison sélectionné est invalide.")
	}
	if deliveryType == models.DeliveryHome && input.Address == "" {
		return invalidInput("missing_address", "Veuillez saisir votre adresse de livraison.")
	}

	if len(input.Items) == 0 {
		return invalidInput("empty_cart", "Votre panier est vide.")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 {
			return invalidInput("invalid_cart_item", "Votre panier contient un article invalide.")
		}
	}

	return nil
}
