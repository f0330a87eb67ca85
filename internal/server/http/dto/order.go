package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/projection"
)

// CreateOrderRequest places an order directly, bypassing the checkout wizard.
// Client totals are optional; when present they must match server pricing.
type CreateOrderRequest struct {
	OrderItems      []model.OrderItem     `json:"orderItems"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	PaymentDetails  *model.PaymentDetails `json:"paymentDetails"`
	ItemsPrice      *decimal.Decimal      `json:"itemsPrice"`
	ShippingPrice   *decimal.Decimal      `json:"shippingPrice"`
	TaxPrice        *decimal.Decimal      `json:"taxPrice"`
	TotalPrice      *decimal.Decimal      `json:"totalPrice"`
}

// ClientTotals returns totals claimed by the client, or nil when any is missing.
func (r CreateOrderRequest) ClientTotals() *model.Totals {
	if r.ItemsPrice == nil || r.ShippingPrice == nil || r.TaxPrice == nil || r.TotalPrice == nil {
		return nil
	}
	return &model.Totals{
		ItemsPrice:    *r.ItemsPrice,
		ShippingPrice: *r.ShippingPrice,
		TaxPrice:      *r.TaxPrice,
		TotalPrice:    *r.TotalPrice,
	}
}

// CreateOrderResponse acknowledges a placed order.
type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// CancelRequest carries an optional reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// BadgeResponse is a colour coded label.
type BadgeResponse struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// TimelineEntryResponse is one line of the order history.
type TimelineEntryResponse struct {
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// OrderItemResponse is an order line with review eligibility.
type OrderItemResponse struct {
	model.OrderItem
	CanReview bool `json:"canReview"`
}

// OrderSummaryResponse is a row of an order listing.
type OrderSummaryResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	StatusBadge BadgeResponse   `json:"statusBadge"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	IsPaid      bool            `json:"isPaid"`
	ItemCount   int             `json:"itemCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderResponse is the detailed order view.
type OrderResponse struct {
	ID                string                  `json:"id"`
	UserID            int64                   `json:"user"`
	OrderItems        []OrderItemResponse     `json:"orderItems"`
	ShippingAddress   model.ShippingAddress   `json:"shippingAddress"`
	PaymentMethod     string                  `json:"paymentMethod"`
	PaymentResult     *model.PaymentResult    `json:"paymentResult,omitempty"`
	IsPaid            bool                    `json:"isPaid"`
	PaidAt            *time.Time              `json:"paidAt,omitempty"`
	Status            string                  `json:"status"`
	StatusBadge       BadgeResponse           `json:"statusBadge"`
	PaymentBadge      BadgeResponse           `json:"paymentBadge"`
	Timeline          []TimelineEntryResponse `json:"timeline"`
	CanCancel         bool                    `json:"canCancel"`
	AvailableActions  []string                `json:"availableActions,omitempty"`
	DeliveredAt       *time.Time              `json:"deliveredAt,omitempty"`
	CancelledAt       *time.Time              `json:"cancelledAt,omitempty"`
	CancelReason      string                  `json:"cancelReason,omitempty"`
	TrackingNumber    string                  `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time              `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
	TotalsResponse
}

func newBadge(b projection.Badge) BadgeResponse {
	return BadgeResponse{Label: b.Label, Color: b.Color}
}

// NewOrderSummary converts order into a listing row.
func NewOrderSummary(o model.Order) OrderSummaryResponse {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderSummaryResponse{
		ID:          o.ID,
		Status:      string(o.Status),
		StatusBadge: newBadge(projection.StatusBadge(o.Status)),
		TotalPrice:  o.TotalPrice,
		IsPaid:      o.IsPaid,
		ItemCount:   count,
		CreatedAt:   o.CreatedAt,
	}
}

// NewOrderSummaries converts a listing.
func NewOrderSummaries(orders []model.Order) []OrderSummaryResponse {
	resp := make([]OrderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, NewOrderSummary(o))
	}
	return resp
}

// NewOrderResponse renders order detail. reviewed holds product ids the owner
// already reviewed; staff views additionally list available status actions.
func NewOrderResponse(o *model.Order, reviewed map[string]bool, staff bool) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{OrderItem: item, CanReview: projection.CanReview(o, reviewed[item.ProductID])})
	}

	resp := OrderResponse{
		ID:                o.ID,
		UserID:            o.UserID,
		OrderItems:        items,
		ShippingAddress:   o.ShippingAddress,
		PaymentMethod:     string(o.PaymentMethod),
		PaymentResult:     o.PaymentResult,
		IsPaid:            o.IsPaid,
		PaidAt:            o.PaidAt,
		Status:            string(o.Status),
		StatusBadge:       newBadge(projection.StatusBadge(o.Status)),
		PaymentBadge:      newBadge(projection.PaymentBadge(o.IsPaid)),
		Timeline:          NewTimeline(o),
		CanCancel:         projection.CanCancel(o),
		DeliveredAt:       o.DeliveredAt,
		CancelledAt:       o.CancelledAt,
		CancelReason:      o.CancelReason,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		TotalsResponse:    NewTotalsResponse(o.Totals()),
	}
	if staff {
		for _, next := range projection.AvailableActions(o.Status) {
			resp.AvailableActions = append(resp.AvailableActions, string(next))
		}
	}
	return resp
}

// NewTimeline renders order history in chronological order.
func NewTimeline(o *model.Order) []TimelineEntryResponse {
	entries := projection.Timeline(o)
	resp := make([]TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, TimelineEntryResponse{Status: string(e.Status), Label: e.Label, Timestamp: e.Timestamp, Note: e.Note})
	}
	return resp
}
