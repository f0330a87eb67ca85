package model

import (
	"strings"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// PaymentMethod identifies how the buyer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBkash          PaymentMethod = "bkash"
	PaymentNagad          PaymentMethod = "nagad"
	PaymentRocket         PaymentMethod = "rocket"
)

// Valid reports whether method is supported.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBkash, PaymentNagad, PaymentRocket:
		return true
	}
	return false
}

// IsMobileBanking reports whether method needs a verified transfer record.
func (m PaymentMethod) IsMobileBanking() bool {
	return m == PaymentBkash || m == PaymentNagad || m == PaymentRocket
}

// PaymentDetails is the transfer record of a mobile-banking payment.
type PaymentDetails struct {
	TransactionID string `json:"transactionId" validate:"required,alphanum,min=6,max=32"`
	AccountNumber string `json:"accountNumber" validate:"required,phone"`
}

// PaymentSelection is either a bare method or a method with transfer details.
type PaymentSelection struct {
	Method  PaymentMethod   `json:"paymentMethod"`
	Details *PaymentDetails `json:"paymentDetails,omitempty"`
}

// Normalize trims details and drops them for cash methods.
func (p PaymentSelection) Normalize() PaymentSelection {
	p.Method = PaymentMethod(strings.ToLower(strings.TrimSpace(string(p.Method))))
	if !p.Method.IsMobileBanking() {
		p.Details = nil
		return p
	}
	if p.Details != nil {
		details := *p.Details
		details.TransactionID = strings.TrimSpace(details.TransactionID)
		details.AccountNumber = strings.ReplaceAll(strings.TrimSpace(details.AccountNumber), " ", "")
		p.Details = &details
	}
	return p
}

// Validate checks method and, for mobile banking, the transfer record.
func (p PaymentSelection) Validate() error {
	if !p.Method.Valid() {
		return domainErrors.NewValidationError("paymentMethod", "must be a supported payment method")
	}
	if !p.Method.IsMobileBanking() {
		return nil
	}
	if p.Details == nil {
		v := domainErrors.NewValidationError("transactionId", "is required")
		v.Add("accountNumber", "is required")
		return v
	}
	return validateStruct(*p.Details)
}

// PaymentResult records what the buyer submitted as proof of payment.
type PaymentResult struct {
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transactionId"`
	AccountNumber string        `json:"accountNumber"`
	SubmittedAt   time.Time     `json:"submittedAt"`
}

// ResultFor builds payment result for transfer methods and nil for cash ones.
func (p PaymentSelection) ResultFor(now time.Time) *PaymentResult {
	if !p.Method.IsMobileBanking() || p.Details == nil {
		return nil
	}
	return &PaymentResult{
		Method:        p.Method,
		TransactionID: p.Details.TransactionID,
		AccountNumber: p.Details.AccountNumber,
		SubmittedAt:   now.UTC(),
	}
}
