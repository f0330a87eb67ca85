package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// CartOwner identifies whose cart and checkout session is addressed.
type CartOwner struct {
	UserID   int64
	DeviceID string
}

// DefaultDeviceID is used when client does not identify its device.
const DefaultDeviceID = "default"

// Key renders owner as a storage key fragment.
func (o CartOwner) Key() string {
	device := strings.TrimSpace(o.DeviceID)
	if device == "" {
		device = DefaultDeviceID
	}
	return strconv.FormatInt(o.UserID, 10) + ":" + device
}

// Preferences are last used checkout choices, used only to prefill forms.
type Preferences struct {
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod,omitempty"`
}

// CheckoutStep is a state of the checkout session.
type CheckoutStep string

const (
	StepAddress    CheckoutStep = "address"
	StepPayment    CheckoutStep = "payment"
	StepReview     CheckoutStep = "review"
	StepSubmitting CheckoutStep = "submitting"
	StepSuccess    CheckoutStep = "success"
)

var stepOrder = map[CheckoutStep]int{
	StepAddress:    0,
	StepPayment:    1,
	StepReview:     2,
	StepSubmitting: 3,
	StepSuccess:    4,
}

// GuardDecision tells a caller whether checkout may be shown.
type GuardDecision string

const (
	GuardAllow         GuardDecision = "allow"
	GuardRedirectLogin GuardDecision = "login"
	GuardRedirectCart  GuardDecision = "cart"
)

// CheckoutView is what the buyer sees on the checkout page.
type CheckoutView struct {
	Session       CheckoutSession
	Cart          Cart
	Totals        Totals
	Guard         GuardDecision
	CanPlaceOrder bool
}

// CheckoutSession is an immutable snapshot; transitions return a new value.
// A failed submission is represented as StepReview with LastError set.
type CheckoutSession struct {
	Step         CheckoutStep      `json:"step"`
	Furthest     CheckoutStep      `json:"furthest"`
	Address      *ShippingAddress  `json:"shippingAddress,omitempty"`
	Payment      *PaymentSelection `json:"payment,omitempty"`
	AttemptToken string            `json:"attemptToken,omitempty"`
	CartPrint    string            `json:"cartFingerprint,omitempty"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`
	OrderID      string            `json:"orderId,omitempty"`
	LastError    string            `json:"lastError,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// NewCheckoutSession starts at the address step, prefilled from preferences.
func NewCheckoutSession(prefs Preferences, now time.Time) CheckoutSession {
	s := CheckoutSession{Step: StepAddress, Furthest: StepAddress, UpdatedAt: now.UTC()}
	if prefs.ShippingAddress != nil {
		addr := *prefs.ShippingAddress
		s.Address = &addr
	}
	if prefs.PaymentMethod.Valid() {
		s.Payment = &PaymentSelection{Method: prefs.PaymentMethod}
	}
	return s
}

// Latched reports whether a submission is in flight or has succeeded.
func (s CheckoutSession) Latched() bool {
	return s.Step == StepSubmitting || s.Step == StepSuccess
}

// CanPlaceOrder reports whether the place order action is enabled.
func (s CheckoutSession) CanPlaceOrder() bool {
	return s.Step == StepReview && s.AttemptToken != "" && s.Address != nil && s.Payment != nil
}

// Guard decides whether the session may be shown to the user.
func (s CheckoutSession) Guard(authenticated, cartEmpty bool) GuardDecision {
	if !authenticated {
		return GuardRedirectLogin
	}
	if s.Latched() {
		return GuardAllow
	}
	if cartEmpty {
		return GuardRedirectCart
	}
	return GuardAllow
}

// SubmitShipping records a valid address and moves to payment selection.
// Changing the address starts a new checkout attempt.
func (s CheckoutSession) SubmitShipping(address ShippingAddress, now time.Time) (CheckoutSession, error) {
	if err := s.ensureEditable(); err != nil {
		return s, err
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return s, err
	}

	s.Address = &address
	s.Step = StepPayment
	s.Furthest = laterStep(s.Furthest, StepPayment)
	s.AttemptToken = ""
	s.CartPrint = ""
	s.LastError = ""
	s.UpdatedAt = now.UTC()
	return s, nil
}

// SelectPayment records payment and enters review with a fresh attempt token
// bound to the reviewed cart.
func (s CheckoutSession) SelectPayment(payment PaymentSelection, attemptToken, cartPrint string, now time.Time) (CheckoutSession, error) {
	if s.Step != StepPayment {
		return s, stepError("payment step is not active")
	}
	payment = payment.Normalize()
	if err := payment.Validate(); err != nil {
		return s, err
	}
	if strings.TrimSpace(attemptToken) == "" {
		return s, fmt.Errorf("select payment: empty attempt token")
	}

	s.Payment = &payment
	s.Step = StepReview
	s.Furthest = laterStep(s.Furthest, StepReview)
	s.AttemptToken = attemptToken
	s.CartPrint = cartPrint
	s.LastError = ""
	s.UpdatedAt = now.UTC()
	return s, nil
}

// Rebind issues a new attempt token when the cart no longer matches the one
// the current token was issued for. An earlier attempt may already have been
// stored under the old token, so it must not be reused for different items.
func (s CheckoutSession) Rebind(cartPrint string, newToken func() string, now time.Time) (CheckoutSession, bool) {
	if s.AttemptToken == "" || s.Latched() || s.CartPrint == cartPrint {
		return s, false
	}
	s.AttemptToken = newToken()
	s.CartPrint = cartPrint
	s.UpdatedAt = now.UTC()
	return s, true
}

// GoTo moves back to an already completed step. Forward jumps are rejected.
func (s CheckoutSession) GoTo(step CheckoutStep, now time.Time) (CheckoutSession, error) {
	if err := s.ensureEditable(); err != nil {
		return s, err
	}
	target, ok := stepOrder[step]
	if !ok || step == StepSubmitting || step == StepSuccess {
		return s, stepError("unknown checkout step")
	}
	if target > stepOrder[s.Step] || target > stepOrder[s.Furthest] {
		return s, stepError("cannot skip ahead to " + string(step))
	}
	if step == s.Step {
		return s, nil
	}

	s.Step = step
	s.LastError = ""
	s.UpdatedAt = now.UTC()
	return s, nil
}

// PlaceOrder enters the submitting state. Only one submission may be in flight.
func (s CheckoutSession) PlaceOrder(now time.Time) (CheckoutSession, error) {
	switch {
	case s.Step == StepSubmitting:
		return s, domainErrors.ErrSubmissionInFlight
	case s.Step == StepSuccess:
		return s, stepError("order already placed")
	case !s.CanPlaceOrder():
		return s, stepError("review step is not active")
	}

	at := now.UTC()
	s.Step = StepSubmitting
	s.SubmittedAt = &at
	s.LastError = ""
	s.UpdatedAt = at
	return s, nil
}

// Succeed finishes the submission. The latch stays set.
func (s CheckoutSession) Succeed(orderID string, now time.Time) (CheckoutSession, error) {
	if s.Step != StepSubmitting {
		return s, stepError("no submission in flight")
	}
	s.Step = StepSuccess
	s.Furthest = StepSuccess
	s.OrderID = orderID
	s.SubmittedAt = nil
	s.UpdatedAt = now.UTC()
	return s, nil
}

// Fail returns to review keeping the attempt token, so a retry is deduplicated.
func (s CheckoutSession) Fail(reason string, now time.Time) (CheckoutSession, error) {
	if s.Step != StepSubmitting {
		return s, stepError("no submission in flight")
	}
	s.Step = StepReview
	s.SubmittedAt = nil
	s.LastError = reason
	s.UpdatedAt = now.UTC()
	return s, nil
}

// ResolveStale turns a submission older than bound into a retry eligible failure.
// It never retries on its own.
func (s CheckoutSession) ResolveStale(bound time.Duration, now time.Time) (CheckoutSession, bool) {
	if s.Step != StepSubmitting || s.SubmittedAt == nil || bound <= 0 {
		return s, false
	}
	if now.Sub(*s.SubmittedAt) <= bound {
		return s, false
	}
	failed, err := s.Fail("submission did not complete in time; it is safe to retry", now)
	if err != nil {
		return s, false
	}
	return failed, true
}

// ShowsSuccess reports whether confirmation of orderID may be rendered.
// A remembered last order marker keeps a refreshed confirmation page valid.
func (s CheckoutSession) ShowsSuccess(orderID, lastOrderID string) bool {
	if orderID == "" {
		return false
	}
	if s.Step == StepSuccess && s.OrderID == orderID {
		return true
	}
	return lastOrderID == orderID
}

func (s CheckoutSession) ensureEditable() error {
	switch s.Step {
	case StepSubmitting:
		return domainErrors.ErrSubmissionInFlight
	case StepSuccess:
		return stepError("order already placed")
	}
	return nil
}

func laterStep(a, b CheckoutStep) CheckoutStep {
	if stepOrder[b] > stepOrder[a] {
		return b
	}
	return a
}

func stepError(message string) error {
	return domainErrors.NewValidationError("step", message)
}
