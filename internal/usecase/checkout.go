package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/metrics"
)

const retryMessage = "order could not be placed; please try again"

// CheckoutParams lists CheckoutUseCase dependencies.
type CheckoutParams struct {
	fx.In

	Carts    repository.CartStore
	Sessions repository.CheckoutSessionStore
	Lock     repository.SubmissionLock
	Orders   *OrderUseCase
	Metrics  *metrics.Metrics
	Config   *config.Config
	Logger   *slog.Logger
}

// CheckoutUseCase drives the checkout session from address entry to a placed order.
type CheckoutUseCase struct {
	carts    repository.CartStore
	sessions repository.CheckoutSessionStore
	lock     repository.SubmissionLock
	orders   *OrderUseCase
	metrics  *metrics.Metrics
	bound    time.Duration
	logger   *slog.Logger

	now      func() time.Time
	newToken func() string
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(p CheckoutParams) *CheckoutUseCase {
	bound := 30 * time.Second
	if p.Config != nil && p.Config.SubmissionTimeout > 0 {
		bound = p.Config.SubmissionTimeout
	}
	return &CheckoutUseCase{
		carts:    p.Carts,
		sessions: p.Sessions,
		lock:     p.Lock,
		orders:   p.Orders,
		metrics:  p.Metrics,
		bound:    bound,
		logger:   p.Logger,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewString,
	}
}

// State returns the current checkout view. A stale submission is resolved
// into a retry eligible failure, and a finished checkout is restarted once the
// buyer has something new in the cart.
func (u *CheckoutUseCase) State(ctx context.Context, owner model.CartOwner) (*model.CheckoutView, error) {
	session, cart, err := u.current(ctx, owner)
	if err != nil {
		return nil, err
	}
	return view(session, cart), nil
}

// SubmitShipping stores a validated address and moves on to payment.
func (u *CheckoutUseCase) SubmitShipping(ctx context.Context, owner model.CartOwner, address model.ShippingAddress) (*model.CheckoutView, error) {
	v, err := u.mutate(ctx, owner, func(s model.CheckoutSession, _ model.Cart) (model.CheckoutSession, error) {
		return s.SubmitShipping(address, u.now())
	})
	if err != nil {
		return nil, err
	}
	if err := u.carts.SaveShippingAddress(ctx, owner, *v.Session.Address); err != nil {
		u.logger.Warn("remember shipping address failed", slog.String("owner", owner.Key()), slog.Any("error", err))
	}
	return v, nil
}

// SelectPayment stores a payment choice and enters review with a new attempt token.
func (u *CheckoutUseCase) SelectPayment(ctx context.Context, owner model.CartOwner, payment model.PaymentSelection) (*model.CheckoutView, error) {
	v, err := u.mutate(ctx, owner, func(s model.CheckoutSession, cart model.Cart) (model.CheckoutSession, error) {
		return s.SelectPayment(payment, u.newToken(), cart.Fingerprint(), u.now())
	})
	if err != nil {
		return nil, err
	}
	if err := u.carts.SavePaymentMethod(ctx, owner, v.Session.Payment.Method); err != nil {
		u.logger.Warn("remember payment method failed", slog.String("owner", owner.Key()), slog.Any("error", err))
	}
	return v, nil
}

// Back returns to an already completed step.
func (u *CheckoutUseCase) Back(ctx context.Context, owner model.CartOwner, step model.CheckoutStep) (*model.CheckoutView, error) {
	return u.mutate(ctx, owner, func(s model.CheckoutSession, _ model.Cart) (model.CheckoutSession, error) {
		return s.GoTo(step, u.now())
	})
}

// PlaceOrder submits the cart. Only one submission per owner may be in flight;
// a failure returns the session to review keeping the attempt token, so a
// retry of the same cart is deduplicated by the order store. Editing the cart
// after review issues a new token before anything is submitted.
func (u *CheckoutUseCase) PlaceOrder(ctx context.Context, owner model.CartOwner) (*model.Order, error) {
	session, cart, err := u.current(ctx, owner)
	if err != nil {
		return nil, err
	}
	if session.Guard(true, cart.IsEmpty()) == model.GuardRedirectCart {
		return nil, domainErrors.NewValidationError("cart", "is empty")
	}

	submitting, err := session.PlaceOrder(u.now())
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionInFlight) {
			u.metrics.ObserveSubmission(metrics.OutcomeInFlight)
		}
		return nil, err
	}

	acquired, err := u.lock.Acquire(ctx, owner, u.bound)
	if err != nil {
		return nil, err
	}
	if !acquired {
		u.metrics.ObserveSubmission(metrics.OutcomeInFlight)
		return nil, domainErrors.ErrSubmissionInFlight
	}

	// Writes after the submission must land even if the client went away.
	detached := context.WithoutCancel(ctx)
	defer func() {
		if err := u.lock.Release(detached, owner); err != nil {
			u.logger.Error("release submission lock failed", slog.String("owner", owner.Key()), slog.Any("error", err))
		}
	}()

	if err := u.sessions.SaveSession(ctx, owner, submitting); err != nil {
		return nil, err
	}

	totals := cart.Totals()
	submitCtx, cancel := context.WithTimeout(ctx, u.bound)
	defer cancel()
	order, _, err := u.orders.Submit(submitCtx, model.OrderSubmission{
		UserID:         owner.UserID,
		Items:          cart.OrderItems(),
		Address:        *submitting.Address,
		Payment:        *submitting.Payment,
		ClientTotals:   &totals,
		IdempotencyKey: submitting.AttemptToken,
	})
	if err != nil {
		failed, ferr := submitting.Fail(failureMessage(err), u.now())
		if errors.Is(err, domainErrors.ErrIdempotencyMismatch) {
			failed.AttemptToken = u.newToken()
			failed.CartPrint = cart.Fingerprint()
		}
		if ferr == nil {
			u.saveDetached(detached, owner, failed)
		}
		u.logger.Warn("order submission failed", slog.String("owner", owner.Key()), slog.Any("error", err))
		return nil, err
	}

	if err := u.carts.ClearCart(detached, owner); err != nil {
		u.logger.Error("clear cart after order failed", slog.String("order", order.ID), slog.Any("error", err))
	}
	if err := u.sessions.RememberLastOrder(detached, owner, order.ID); err != nil {
		u.logger.Error("remember last order failed", slog.String("order", order.ID), slog.Any("error", err))
	}
	if done, err := submitting.Succeed(order.ID, u.now()); err == nil {
		u.saveDetached(detached, owner, done)
	}
	return order, nil
}

// SuccessView returns the placed order when its confirmation may be shown.
// Any other order id yields ErrNotFound and the caller redirects to the cart.
func (u *CheckoutUseCase) SuccessView(ctx context.Context, owner model.CartOwner, orderID string) (*model.Order, error) {
	var session model.CheckoutSession
	stored, err := u.sessions.LoadSession(ctx, owner)
	switch {
	case err == nil:
		session = *stored
	case !errors.Is(err, domainErrors.ErrNotFound):
		return nil, err
	}

	last, err := u.sessions.LastOrder(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !session.ShowsSuccess(orderID, last) {
		return nil, domainErrors.ErrNotFound
	}
	return u.orders.Get(ctx, model.Actor{UserID: owner.UserID, Role: model.RoleCustomer}, orderID)
}

func (u *CheckoutUseCase) mutate(ctx context.Context, owner model.CartOwner, fn func(model.CheckoutSession, model.Cart) (model.CheckoutSession, error)) (*model.CheckoutView, error) {
	session, cart, err := u.current(ctx, owner)
	if err != nil {
		return nil, err
	}
	if session.Guard(true, cart.IsEmpty()) == model.GuardRedirectCart {
		return nil, domainErrors.NewValidationError("cart", "is empty")
	}

	next, err := fn(session, cart)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.SaveSession(ctx, owner, next); err != nil {
		return nil, err
	}
	return view(next, cart), nil
}

func (u *CheckoutUseCase) current(ctx context.Context, owner model.CartOwner) (model.CheckoutSession, model.Cart, error) {
	cart, err := u.carts.LoadCart(ctx, owner)
	if err != nil {
		return model.CheckoutSession{}, model.Cart{}, err
	}

	stored, err := u.sessions.LoadSession(ctx, owner)
	if errors.Is(err, domainErrors.ErrNotFound) {
		session, err := u.fresh(ctx, owner)
		return session, cart, err
	}
	if err != nil {
		return model.CheckoutSession{}, model.Cart{}, err
	}

	session, resolved := stored.ResolveStale(u.bound, u.now())
	if resolved {
		u.logger.Warn("stale order submission resolved", slog.String("owner", owner.Key()))
		if err := u.sessions.SaveSession(ctx, owner, session); err != nil {
			return model.CheckoutSession{}, model.Cart{}, err
		}
	}

	if session.Step == model.StepSuccess && !cart.IsEmpty() {
		session, err = u.fresh(ctx, owner)
		return session, cart, err
	}

	if rebound, changed := session.Rebind(cart.Fingerprint(), u.newToken, u.now()); changed {
		u.logger.Info("cart changed after review, new attempt token issued", slog.String("owner", owner.Key()))
		if err := u.sessions.SaveSession(ctx, owner, rebound); err != nil {
			return model.CheckoutSession{}, model.Cart{}, err
		}
		session = rebound
	}
	return session, cart, nil
}

func (u *CheckoutUseCase) fresh(ctx context.Context, owner model.CartOwner) (model.CheckoutSession, error) {
	prefs, err := u.carts.LoadPreferences(ctx, owner)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return model.NewCheckoutSession(prefs, u.now()), nil
}

func (u *CheckoutUseCase) saveDetached(ctx context.Context, owner model.CartOwner, session model.CheckoutSession) {
	if err := u.sessions.SaveSession(ctx, owner, session); err != nil {
		u.logger.Error("save checkout session failed",
			slog.String("owner", owner.Key()),
			slog.String("step", string(session.Step)),
			slog.Any("error", err),
		)
	}
}

func view(session model.CheckoutSession, cart model.Cart) *model.CheckoutView {
	guard := session.Guard(true, cart.IsEmpty())
	return &model.CheckoutView{
		Session:       session,
		Cart:          cart,
		Totals:        cart.Totals(),
		Guard:         guard,
		CanPlaceOrder: guard == model.GuardAllow && session.CanPlaceOrder(),
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		return err.Error()
	case errors.Is(err, domainErrors.ErrIdempotencyMismatch):
		return "an earlier attempt was placed with different items; review your cart and place the order again"
	}
	return retryMessage
}
