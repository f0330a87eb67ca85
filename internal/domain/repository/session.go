package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartStore keeps cart and checkout preferences per user and device.
type CartStore interface {
	LoadCart(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	SaveCart(ctx context.Context, owner model.CartOwner, cart model.Cart) error
	ClearCart(ctx context.Context, owner model.CartOwner) error
	LoadPreferences(ctx context.Context, owner model.CartOwner) (model.Preferences, error)
	SaveShippingAddress(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) error
	SavePaymentMethod(ctx context.Context, owner model.CartOwner, method model.PaymentMethod) error
}

// CheckoutSessionStore keeps checkout sessions and the last placed order marker.
type CheckoutSessionStore interface {
	LoadSession(ctx context.Context, owner model.CartOwner) (*model.CheckoutSession, error)
	SaveSession(ctx context.Context, owner model.CartOwner, session model.CheckoutSession) error
	RememberLastOrder(ctx context.Context, owner model.CartOwner, orderID string) error
	LastOrder(ctx context.Context, owner model.CartOwner) (string, error)
}

// SubmissionLock allows a single order submission per owner at a time.
type SubmissionLock interface {
	Acquire(ctx context.Context, owner model.CartOwner, ttl time.Duration) (bool, error)
	Release(ctx context.Context, owner model.CartOwner) error
}
