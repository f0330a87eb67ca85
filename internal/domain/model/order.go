package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// Role distinguishes buyers from back office staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// OrderItem is a snapshot of a product taken when the order is placed.
type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
}

// LineTotal returns price multiplied by quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusEntry is a single audit record of an order status change.
type StatusEntry struct {
	Status    OrderStatus
	Timestamp time.Time
	Note      string
}

// Order is the canonical record of a purchase.
type Order struct {
	ID                string
	UserID            int64
	Items             []OrderItem
	ShippingAddress   ShippingAddress
	PaymentMethod     PaymentMethod
	PaymentResult     *PaymentResult
	ItemsPrice        decimal.Decimal
	ShippingPrice     decimal.Decimal
	TaxPrice          decimal.Decimal
	TotalPrice        decimal.Decimal
	IsPaid            bool
	PaidAt            *time.Time
	Status            OrderStatus
	StatusHistory     []StatusEntry
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
	TrackingNumber    string
	EstimatedDelivery *time.Time
	IdempotencyKey    string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderSubmission is a request to place an order. ClientTotals, when given,
// must match the server computed pricing.
type OrderSubmission struct {
	UserID         int64
	Items          []OrderItem
	Address        ShippingAddress
	Payment        PaymentSelection
	ClientTotals   *Totals
	IdempotencyKey string
}

// NewOrder builds a freshly placed order with server computed totals.
func NewOrder(id string, userID int64, items []OrderItem, address ShippingAddress, payment PaymentSelection, idempotencyKey string, now time.Time) *Order {
	now = now.UTC()
	snapshot := make([]OrderItem, len(items))
	copy(snapshot, items)
	totals := ComputeTotals(snapshot)

	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           snapshot,
		ShippingAddress: address,
		PaymentMethod:   payment.Method,
		PaymentResult:   payment.ResultFor(now),
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          OrderStatusProcessing,
		StatusHistory:   []StatusEntry{{Status: OrderStatusProcessing, Timestamp: now, Note: "Order placed"}},
		IdempotencyKey:  idempotencyKey,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Matches reports whether the order was placed for exactly these items at
// these totals.
func (o *Order) Matches(items []OrderItem, totals Totals) bool {
	if len(o.Items) != len(items) || !o.Totals().Equal(totals) {
		return false
	}
	for i, item := range items {
		stored := o.Items[i]
		if stored.ProductID != item.ProductID || stored.Quantity != item.Quantity || !stored.Price.Equal(item.Price) {
			return false
		}
	}
	return true
}

// Totals returns stored pricing.
func (o *Order) Totals() Totals {
	return Totals{ItemsPrice: o.ItemsPrice, ShippingPrice: o.ShippingPrice, TaxPrice: o.TaxPrice, TotalPrice: o.TotalPrice}
}

// StatusChange requests a move to another status.
type StatusChange struct {
	To                OrderStatus
	Note              string
	TrackingNumber    string
	EstimatedDelivery *time.Time
	At                time.Time
}

// ApplyStatus validates change against the transition table and applies it
// together with exactly one history entry. On error the order is untouched.
func (o *Order) ApplyStatus(change StatusChange) error {
	if !change.To.Valid() {
		return domainErrors.NewValidationError("status", "must be a known order status")
	}
	if !CanTransition(o.Status, change.To) {
		return fmt.Errorf("%w: %s to %s", domainErrors.ErrInvalidTransition, o.Status, change.To)
	}

	note := strings.TrimSpace(change.Note)
	if change.To == OrderStatusCancelled && note == "" {
		return domainErrors.NewValidationError("cancelReason", "is required")
	}

	at := change.At.UTC()
	o.Status = change.To
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: change.To, Timestamp: at, Note: note})
	o.UpdatedAt = at

	switch change.To {
	case OrderStatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &at
		}
	case OrderStatusCancelled:
		o.CancelledAt = &at
		o.CancelReason = note
	}

	if tracking := strings.TrimSpace(change.TrackingNumber); tracking != "" {
		o.TrackingNumber = tracking
	}
	if change.EstimatedDelivery != nil {
		eta := change.EstimatedDelivery.UTC()
		o.EstimatedDelivery = &eta
	}
	return nil
}

// Cancel applies cancellation on behalf of role. Customers may cancel only
// while the order is processing; staff may cancel any non-terminal order.
func (o *Order) Cancel(role Role, reason string, now time.Time) error {
	if role != RoleStaff && o.Status != OrderStatusProcessing {
		return fmt.Errorf("%w: customer cannot cancel %s order", domainErrors.ErrInvalidTransition, o.Status)
	}
	return o.ApplyStatus(StatusChange{To: OrderStatusCancelled, Note: reason, At: now})
}

// SetPaid toggles payment flag. Status is never affected.
func (o *Order) SetPaid(paid bool, now time.Time) {
	now = now.UTC()
	o.IsPaid = paid
	if paid {
		o.PaidAt = &now
	} else {
		o.PaidAt = nil
	}
	o.UpdatedAt = now
}

// Consistent verifies aggregate invariants.
func (o *Order) Consistent() error {
	if !Round2(o.ItemsPrice.Add(o.ShippingPrice).Add(o.TaxPrice)).Equal(o.TotalPrice) {
		return fmt.Errorf("order %s: total does not match components", o.ID)
	}
	if len(o.StatusHistory) == 0 || o.StatusHistory[0].Status != OrderStatusProcessing {
		return fmt.Errorf("order %s: history must start with %s", o.ID, OrderStatusProcessing)
	}
	if last := o.StatusHistory[len(o.StatusHistory)-1]; last.Status != o.Status {
		return fmt.Errorf("order %s: last history entry %s differs from status %s", o.ID, last.Status, o.Status)
	}
	if o.IsPaid && o.PaidAt == nil {
		return fmt.Errorf("order %s: paid without paidAt", o.ID)
	}
	if o.Status == OrderStatusDelivered && o.DeliveredAt == nil {
		return fmt.Errorf("order %s: delivered without deliveredAt", o.ID)
	}
	if o.Status == OrderStatusCancelled && (o.CancelledAt == nil || o.CancelReason == "") {
		return fmt.Errorf("order %s: cancelled without cancelledAt or reason", o.ID)
	}
	return nil
}

// OrderFilter narrows staff order listings.
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}
