package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (pkgAuth.Identity, error)
}

// CartFacade edits the cart of the caller's device.
type CartFacade interface {
	Cart(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	AddCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error)
	UpdateCartItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error)
	RemoveCartItem(ctx context.Context, owner model.CartOwner, productID, variant string) (model.Cart, error)
}

// CheckoutFacade drives the checkout wizard.
type CheckoutFacade interface {
	Checkout(ctx context.Context, owner model.CartOwner) (*model.CheckoutView, error)
	SubmitShipping(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) (*model.CheckoutView, error)
	SelectPayment(ctx context.Context, owner model.CartOwner, payment model.PaymentSelection) (*model.CheckoutView, error)
	CheckoutBack(ctx context.Context, owner model.CartOwner, step model.CheckoutStep) (*model.CheckoutView, error)
	PlaceOrder(ctx context.Context, owner model.CartOwner) (*model.Order, error)
	OrderSuccess(ctx context.Context, owner model.CartOwner, orderID string) (*model.Order, error)
}

// OrderFacade encapsulates customer order operations exposed via HTTP.
type OrderFacade interface {
	SubmitOrder(ctx context.Context, submission model.OrderSubmission) (*model.Order, bool, error)
	MyOrders(ctx context.Context, userID int64) ([]model.Order, error)
	Order(ctx context.Context, actor model.Actor, id string) (*model.Order, map[string]bool, error)
	CancelOrder(ctx context.Context, actor model.Actor, id, reason string) (*model.Order, error)
}

// AdminFacade provides back office order operations.
type AdminFacade interface {
	AllOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, actor model.Actor, id string, change model.StatusChange, expected model.OrderStatus) (*model.Order, error)
	UpdateOrderPayment(ctx context.Context, actor model.Actor, id string, paid bool) (*model.Order, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	CartFacade
	CheckoutFacade
	OrderFacade
	AdminFacade
	HealthFacade
}
