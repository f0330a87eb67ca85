package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (pkgAuth.Identity, error)
}

// Register returns token for successful registration scenarios.
func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

// Authenticate returns token for successful authentication scenarios.
func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

// ParseToken returns a customer identity unless overridden.
func (s AuthFacadeStub) ParseToken(token string) (pkgAuth.Identity, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return pkgAuth.Identity{UserID: 1, Role: model.RoleCustomer}, nil
}

// CartFacadeStub provides controllable cart endpoints.
type CartFacadeStub struct {
	CartFn   func(context.Context, model.CartOwner) (model.Cart, error)
	AddFn    func(context.Context, model.CartOwner, string, string, int) (model.Cart, error)
	UpdateFn func(context.Context, model.CartOwner, string, string, int) (model.Cart, error)
	RemoveFn func(context.Context, model.CartOwner, string, string) (model.Cart, error)
}

// Cart returns configured cart.
func (s CartFacadeStub) Cart(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if s.CartFn != nil {
		return s.CartFn(ctx, owner)
	}
	return model.Cart{}, nil
}

// AddCartItem delegates to override.
func (s CartFacadeStub) AddCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, owner, productID, variant, quantity)
	}
	return model.Cart{}, nil
}

// UpdateCartItem delegates to override.
func (s CartFacadeStub) UpdateCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, owner, productID, variant, quantity)
	}
	return model.Cart{}, nil
}

// RemoveCartItem delegates to override.
func (s CartFacadeStub) RemoveCartItem(ctx context.Context, owner model.CartOwner, productID, variant string) (model.Cart, error) {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, owner, productID, variant)
	}
	return model.Cart{}, nil
}

// CheckoutFacadeStub provides controllable checkout endpoints.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, model.CartOwner) (*model.CheckoutView, error)
	ShippingFn func(context.Context, model.CartOwner, model.ShippingAddress) (*model.CheckoutView, error)
	PaymentFn  func(context.Context, model.CartOwner, model.PaymentSelection) (*model.CheckoutView, error)
	BackFn     func(context.Context, model.CartOwner, model.CheckoutStep) (*model.CheckoutView, error)
	PlaceFn    func(context.Context, model.CartOwner) (*model.Order, error)
	SuccessFn  func(context.Context, model.CartOwner, string) (*model.Order, error)
}

func defaultView() *model.CheckoutView {
	return &model.CheckoutView{
		Session: model.CheckoutSession{Step: model.StepAddress, Furthest: model.StepAddress},
		Guard:   model.GuardAllow,
	}
}

// Checkout returns configured view.
func (s CheckoutFacadeStub) Checkout(ctx context.Context, owner model.CartOwner) (*model.CheckoutView, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, owner)
	}
	return defaultView(), nil
}

// SubmitShipping delegates to override.
func (s CheckoutFacadeStub) SubmitShipping(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) (*model.CheckoutView, error) {
	if s.ShippingFn != nil {
		return s.ShippingFn(ctx, owner, address)
	}
	return defaultView(), nil
}

// SelectPayment delegates to override.
func (s CheckoutFacadeStub) SelectPayment(ctx context.Context, owner model.CartOwner, payment model.PaymentSelection) (*model.CheckoutView, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, owner, payment)
	}
	return defaultView(), nil
}

// CheckoutBack delegates to override.
func (s CheckoutFacadeStub) CheckoutBack(ctx context.Context, owner model.CartOwner, step model.CheckoutStep) (*model.CheckoutView, error) {
	if s.BackFn != nil {
		return s.BackFn(ctx, owner, step)
	}
	return defaultView(), nil
}

// PlaceOrder delegates to override.
func (s CheckoutFacadeStub) PlaceOrder(ctx context.Context, owner model.CartOwner) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, owner)
	}
	return &model.Order{ID: "order-1", UserID: owner.UserID, Status: model.OrderStatusProcessing}, nil
}

// OrderSuccess delegates to override.
func (s CheckoutFacadeStub) OrderSuccess(ctx context.Context, owner model.CartOwner, orderID string) (*model.Order, error) {
	if s.SuccessFn != nil {
		return s.SuccessFn(ctx, owner, orderID)
	}
	return &model.Order{ID: orderID, UserID: owner.UserID, Status: model.OrderStatusProcessing}, nil
}

// OrderFacadeStub provides controllable customer order endpoints.
type OrderFacadeStub struct {
	SubmitFn func(context.Context, model.OrderSubmission) (*model.Order, bool, error)
	MineFn   func(context.Context, int64) ([]model.Order, error)
	OrderFn  func(context.Context, model.Actor, string) (*model.Order, map[string]bool, error)
	CancelFn func(context.Context, model.Actor, string, string) (*model.Order, error)
}

// SubmitOrder delegates to override or creates a processing order.
func (s OrderFacadeStub) SubmitOrder(ctx context.Context, submission model.OrderSubmission) (*model.Order, bool, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, submission)
	}
	return &model.Order{ID: "order-1", UserID: submission.UserID, Status: model.OrderStatusProcessing}, true, nil
}

// MyOrders returns configured orders.
func (s OrderFacadeStub) MyOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.MineFn != nil {
		return s.MineFn(ctx, userID)
	}
	return nil, nil
}

// Order returns configured order.
func (s OrderFacadeStub) Order(ctx context.Context, actor model.Actor, id string) (*model.Order, map[string]bool, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, actor, id)
	}
	return &model.Order{ID: id, UserID: actor.UserID, Status: model.OrderStatusProcessing}, nil, nil
}

// CancelOrder delegates to override.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, actor model.Actor, id, reason string) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, actor, id, reason)
	}
	return &model.Order{ID: id, Status: model.OrderStatusCancelled, CancelReason: reason}, nil
}

// AdminFacadeStub provides controllable staff endpoints.
type AdminFacadeStub struct {
	ListFn    func(context.Context, model.Actor, model.OrderFilter) ([]model.Order, error)
	StatusFn  func(context.Context, model.Actor, string, model.StatusChange, model.OrderStatus) (*model.Order, error)
	PaymentFn func(context.Context, model.Actor, string, bool) (*model.Order, error)
}

// AllOrders returns configured orders.
func (s AdminFacadeStub) AllOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, actor, filter)
	}
	return nil, nil
}

// UpdateOrderStatus delegates to override.
func (s AdminFacadeStub) UpdateOrderStatus(ctx context.Context, actor model.Actor, id string, change model.StatusChange, expected model.OrderStatus) (*model.Order, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, actor, id, change, expected)
	}
	return &model.Order{ID: id, Status: change.To}, nil
}

// UpdateOrderPayment delegates to override.
func (s AdminFacadeStub) UpdateOrderPayment(ctx context.Context, actor model.Actor, id string, paid bool) (*model.Order, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, actor, id, paid)
	}
	return &model.Order{ID: id, IsPaid: paid}, nil
}

// HealthFacadeStub reports configured health.
type HealthFacadeStub struct {
	Err error
}

// Health returns configured error.
func (s HealthFacadeStub) Health(context.Context) error {
	return s.Err
}

// StorefrontFacadeStub aggregates facade dependencies for HTTP layer tests.
type StorefrontFacadeStub struct {
	AuthFacadeStub
	CartFacadeStub
	CheckoutFacadeStub
	OrderFacadeStub
	AdminFacadeStub
	HealthFacadeStub
}

// EventFacadeStub mimics worker interactions with the storefront facade.
type EventFacadeStub struct {
	Disabled   bool
	Batches    [][]model.OutboxRecord
	PendingFn  func(context.Context, int) ([]model.OutboxRecord, error)
	PublishFn  func(context.Context, model.OutboxRecord) error
	MarkFn     func(context.Context, int64) error
	Published  []model.OutboxRecord
	Sent       []int64
	mu         sync.Mutex
	batchCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *EventFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *EventFacadeStub) Unlock() { s.mu.Unlock() }

// EventsEnabled reports whether publishing is configured.
func (s *EventFacadeStub) EventsEnabled() bool {
	return !s.Disabled
}

// PendingEvents returns batches from configured queue.
func (s *EventFacadeStub) PendingEvents(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.batchCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// PublishEvent records published events.
func (s *EventFacadeStub) PublishEvent(ctx context.Context, record model.OutboxRecord) error {
	if s.PublishFn != nil {
		if err := s.PublishFn(ctx, record); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published = append(s.Published, record)
	return nil
}

// MarkEventSent records acknowledged events.
func (s *EventFacadeStub) MarkEventSent(ctx context.Context, id int64) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, id)
	return nil
}

// PublisherStub records published outbox records.
type PublisherStub struct {
	Disabled  bool
	Err       error
	Published []model.OutboxRecord
	mu        sync.Mutex
}

// Enabled reports configured availability.
func (s *PublisherStub) Enabled() bool {
	return !s.Disabled
}

// Publish records record unless an error is configured.
func (s *PublisherStub) Publish(ctx context.Context, record model.OutboxRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published = append(s.Published, record)
	return nil
}
