package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codshopapp/codshop/internal/db"
	"github.com/codshopapp/codshop/internal/models"
)

type productCatalog interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type shippingRates interface {
	Rate(ctx context.Context, wilayaCode string, deliveryType models.DeliveryType) (*models.ShippingRate, error)
}

// Pricer computes the authoritative order total. Client-submitted prices are
// never read; every amount comes from the catalog and the shipping table.
type Pricer struct {
	catalog  productCatalog
	shipping shippingRates
}

func NewPricer(catalog productCatalog, shipping shippingRates) *Pricer {
	return &Pricer{catalog: catalog, shipping: shipping}
}

// Quote is a fully priced order: item snapshots with unit prices frozen at
// submission time, plus the subtotal, shipping fee, and total.
type Quote struct {
	Items    []models.OrderItem
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Quote resolves every cart line against the catalog in one batch and adds the
// shipping fee for the destination. Any missing or inactive product rejects
// the whole order.
func (p *Pricer) Quote(ctx context.Context, items []ItemInput, wilayaCode string, deliveryType models.DeliveryType) (*Quote, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := p.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, internalError("product_lookup_failed", err)
	}

	quote := &Quote{Items: make([]models.OrderItem, 0, len(items))}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.Active {
			return nil, invalidInput("product_unavailable",
				"Un produit de votre panier n'est plus disponible.")
		}

		quote.Items = append(quote.Items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
		quote.Subtotal = quote.Subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	rate, err := p.shipping.Rate(ctx, wilayaCode, deliveryType)
	if errors.Is(err, db.ErrNotFound) {
		return nil, invalidInput("shipping_unavailable",
			"La livraison n'est pas disponible pour cette destination.")
	}
	if err != nil {
		return nil, internalError("shipping_lookup_failed", fmt.Errorf("rate for wilaya %s: %w", wilayaCode, err))
	}
	if !rate.Enabled {
		return nil, invalidInput("shipping_unavailable",
			"La livraison n'est pas disponible pour cette destination.")
	}

	quote.Shipping = rate.Price
	quote.Total = quote.Subtotal.Add(quote.Shipping)
	return quote, nil
}
