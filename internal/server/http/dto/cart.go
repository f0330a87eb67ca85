package dto

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartItemRequest adds a product to the cart.
type CartItemRequest struct {
	ProductID string `json:"product" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

// CartQuantityRequest changes quantity of a cart line.
type CartQuantityRequest struct {
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// TotalsResponse is derived pricing of a cart or an order.
type TotalsResponse struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// CartResponse lists cart lines with their totals.
type CartResponse struct {
	CartItems []model.CartLine `json:"cartItems"`
	TotalsResponse
}

// NewTotalsResponse converts domain totals.
func NewTotalsResponse(t model.Totals) TotalsResponse {
	return TotalsResponse{
		ItemsPrice:    t.ItemsPrice,
		ShippingPrice: t.ShippingPrice,
		TaxPrice:      t.TaxPrice,
		TotalPrice:    t.TotalPrice,
	}
}

// NewCartResponse converts cart. Lines are never null in JSON.
func NewCartResponse(cart model.Cart) CartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return CartResponse{CartItems: lines, TotalsResponse: NewTotalsResponse(cart.Totals())}
}
