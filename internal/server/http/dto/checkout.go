package dto

import "github.com/polkiloo/storefront/internal/domain/model"

// PaymentRequest selects the payment method.
type PaymentRequest struct {
	PaymentMethod  string                `json:"paymentMethod" binding:"required"`
	PaymentDetails *model.PaymentDetails `json:"paymentDetails"`
}

// Selection converts request into domain payment selection.
func (r PaymentRequest) Selection() model.PaymentSelection {
	return model.PaymentSelection{Method: model.PaymentMethod(r.PaymentMethod), Details: r.PaymentDetails}
}

// BackRequest returns to an earlier checkout step.
type BackRequest struct {
	Step string `json:"step" binding:"required"`
}

// CheckoutResponse is the current state of the checkout wizard.
type CheckoutResponse struct {
	Step            string                 `json:"step"`
	Furthest        string                 `json:"furthestStep"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
	PaymentDetails  *model.PaymentDetails  `json:"paymentDetails,omitempty"`
	LastError       string                 `json:"lastError,omitempty"`
	OrderID         string                 `json:"orderId,omitempty"`
	CanPlaceOrder   bool                   `json:"canPlaceOrder"`
	Redirect        string                 `json:"redirect,omitempty"`
	Cart            CartResponse           `json:"cart"`
}

// NewCheckoutResponse converts checkout view.
func NewCheckoutResponse(v *model.CheckoutView) CheckoutResponse {
	resp := CheckoutResponse{
		Step:            string(v.Session.Step),
		Furthest:        string(v.Session.Furthest),
		ShippingAddress: v.Session.Address,
		LastError:       v.Session.LastError,
		OrderID:         v.Session.OrderID,
		CanPlaceOrder:   v.CanPlaceOrder,
		Cart:            NewCartResponse(v.Cart),
	}
	if v.Session.Payment != nil {
		resp.PaymentMethod = string(v.Session.Payment.Method)
		resp.PaymentDetails = v.Session.Payment.Details
	}
	switch v.Guard {
	case model.GuardRedirectCart:
		resp.Redirect = "/cart"
	case model.GuardRedirectLogin:
		resp.Redirect = "/login"
	}
	return resp
}
