package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports availability of a backing service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecks maps a dependency name to its checker.
type HealthChecks map[string]HealthChecker

type FacadeParams struct {
	fx.In

	Auth     *usecase.AuthUseCase
	Carts    *usecase.CartUseCase
	Checkout *usecase.CheckoutUseCase
	Orders   *usecase.OrderUseCase
	Events   *usecase.EventUseCase
	Health   HealthChecks `optional:"true"`
}

// StorefrontFacade is the single entry point used by transport and workers.
type StorefrontFacade struct {
	auth     *usecase.AuthUseCase
	carts    *usecase.CartUseCase
	checkout *usecase.CheckoutUseCase
	orders   *usecase.OrderUseCase
	events   *usecase.EventUseCase
	health   HealthChecks
}

func NewStorefrontFacade(p FacadeParams) *StorefrontFacade {
	return &StorefrontFacade{
		auth:     p.Auth,
		carts:    p.Carts,
		checkout: p.Checkout,
		orders:   p.Orders,
		events:   p.Events,
		health:   p.Health,
	}
}

func (f *StorefrontFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *StorefrontFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *StorefrontFacade) ParseToken(token string) (pkgAuth.Identity, error) {
	return f.auth.ParseToken(token)
}

func (f *StorefrontFacade) Cart(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return f.carts.Cart(ctx, owner)
}

func (f *StorefrontFacade) AddCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	return f.carts.AddItem(ctx, owner, productID, variant, quantity)
}

func (f *StorefrontFacade) UpdateCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	return f.carts.UpdateQuantity(ctx, owner, productID, variant, quantity)
}

func (f *StorefrontFacade) RemoveCartItem(ctx context.Context, owner model.CartOwner, productID, variant string) (model.Cart, error) {
	return f.carts.RemoveItem(ctx, owner, productID, variant)
}

func (f *StorefrontFacade) Checkout(ctx context.Context, owner model.CartOwner) (*model.CheckoutView, error) {
	return f.checkout.State(ctx, owner)
}

func (f *StorefrontFacade) SubmitShipping(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) (*model.CheckoutView, error) {
	return f.checkout.SubmitShipping(ctx, owner, address)
}

func (f *StorefrontFacade) SelectPayment(ctx context.Context, owner model.CartOwner, payment model.PaymentSelection) (*model.CheckoutView, error) {
	return f.checkout.SelectPayment(ctx, owner, payment)
}

func (f *StorefrontFacade) CheckoutBack(ctx context.Context, owner model.CartOwner, step model.CheckoutStep) (*model.CheckoutView, error) {
	return f.checkout.Back(ctx, owner, step)
}

func (f *StorefrontFacade) PlaceOrder(ctx context.Context, owner model.CartOwner) (*model.Order, error) {
	return f.checkout.PlaceOrder(ctx, owner)
}

func (f *StorefrontFacade) OrderSuccess(ctx context.Context, owner model.CartOwner, orderID string) (*model.Order, error) {
	return f.checkout.SuccessView(ctx, owner, orderID)
}

func (f *StorefrontFacade) SubmitOrder(ctx context.Context, submission model.OrderSubmission) (*model.Order, bool, error) {
	return f.orders.Submit(ctx, submission)
}

func (f *StorefrontFacade) MyOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListMine(ctx, userID)
}

// Order returns the order together with the products its owner already reviewed.
func (f *StorefrontFacade) Order(ctx context.Context, actor model.Actor, id string) (*model.Order, map[string]bool, error) {
	order, err := f.orders.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	reviewed, err := f.orders.Reviewed(ctx, order)
	if err != nil {
		return nil, nil, err
	}
	return order, reviewed, nil
}

func (f *StorefrontFacade) CancelOrder(ctx context.Context, actor model.Actor, id, reason string) (*model.Order, error) {
	return f.orders.Cancel(ctx, actor, id, reason)
}

func (f *StorefrontFacade) AllOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
	return f.orders.List(ctx, actor, filter)
}

func (f *StorefrontFacade) UpdateOrderStatus(ctx context.Context, actor model.Actor, id string, change model.StatusChange, expected model.OrderStatus) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, actor, id, change, expected)
}

func (f *StorefrontFacade) UpdateOrderPayment(ctx context.Context, actor model.Actor, id string, paid bool) (*model.Order, error) {
	return f.orders.UpdatePayment(ctx, actor, id, paid)
}

// Health checks every registered dependency and joins the failures.
func (f *StorefrontFacade) Health(ctx context.Context) error {
	names := make([]string, 0, len(f.health))
	for name := range f.health {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := f.health[name].HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *StorefrontFacade) EventsEnabled() bool {
	return f.events.Enabled()
}

func (f *StorefrontFacade) PendingEvents(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	return f.events.Pending(ctx, limit)
}

func (f *StorefrontFacade) PublishEvent(ctx context.Context, record model.OutboxRecord) error {
	return f.events.Publish(ctx, record)
}

func (f *StorefrontFacade) MarkEventSent(ctx context.Context, id int64) error {
	return f.events.MarkSent(ctx, id)
}
