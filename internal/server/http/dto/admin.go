package dto

import "time"

// StatusUpdateRequest moves an order to another status. ExpectedStatus guards
// against acting on a stale view.
type StatusUpdateRequest struct {
	NewStatus         string     `json:"newStatus" binding:"required"`
	Note              string     `json:"note"`
	ExpectedStatus    string     `json:"expectedStatus"`
	TrackingNumber    string     `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// StatusUpdateResponse returns the new status with full history.
type StatusUpdateResponse struct {
	Status        string                  `json:"status"`
	StatusHistory []TimelineEntryResponse `json:"statusHistory"`
}

// PaymentUpdateRequest flips paid flag.
type PaymentUpdateRequest struct {
	IsPaid *bool `json:"isPaid" binding:"required"`
}

// PaymentUpdateResponse returns paid state.
type PaymentUpdateResponse struct {
	IsPaid bool       `json:"isPaid"`
	PaidAt *time.Time `json:"paidAt"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
