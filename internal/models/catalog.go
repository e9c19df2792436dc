package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
}

type ShippingRate struct {
	WilayaCode   string          `json:"wilaya_code"`
	DeliveryType DeliveryType    `json:"delivery_type"`
	Price        decimal.Decimal `json:"price"`
	Enabled      bool            `json:"enabled"`
}
