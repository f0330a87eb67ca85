package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/metrics"
)

// OrderUseCase places orders and drives them through their lifecycle.
type OrderUseCase struct {
	orders  repository.OrderRepository
	reviews repository.ReviewLookup
	metrics *metrics.Metrics
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, reviews repository.ReviewLookup, m *metrics.Metrics, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		orders:  orders,
		reviews: reviews,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Submit validates the submission, prices it on the server and stores the
// order. A repeated idempotency key returns the original order with created
// set to false, provided it holds the same items; otherwise
// ErrIdempotencyMismatch is returned.
func (u *OrderUseCase) Submit(ctx context.Context, sub model.OrderSubmission) (*model.Order, bool, error) {
	if len(sub.Items) == 0 {
		u.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, false, domainErrors.NewValidationError("orderItems", "cart is empty")
	}

	verr := &domainErrors.ValidationError{}
	for i, item := range sub.Items {
		prefix := fmt.Sprintf("orderItems[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			verr.Add(prefix+".product", "is required")
		}
		if item.Quantity < 1 {
			verr.Add(prefix+".quantity", "must be at least 1")
		}
		if !item.Price.IsPositive() {
			verr.Add(prefix+".price", "must be positive")
		}
	}

	address := sub.Address.Normalize()
	if err := address.Validate(); err != nil && !verr.Merge(err) {
		return nil, false, err
	}
	payment := sub.Payment.Normalize()
	if err := payment.Validate(); err != nil && !verr.Merge(err) {
		return nil, false, err
	}
	if err := verr.Err(); err != nil {
		u.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, false, err
	}

	key := strings.TrimSpace(sub.IdempotencyKey)
	if key == "" {
		key = u.newID()
	}

	now := u.now()
	order := model.NewOrder(u.newID(), sub.UserID, sub.Items, address, payment, key, now)
	if sub.ClientTotals != nil && !sub.ClientTotals.Equal(order.Totals()) {
		u.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, false, domainErrors.NewValidationError("totals", "do not match current pricing")
	}

	event := model.NewOrderEvent(u.newID(), model.EventOrderCreated, order, "Order placed", now)
	stored, created, err := u.orders.Create(ctx, order, event)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			u.metrics.ObserveSubmission(metrics.OutcomeRejected)
			return nil, false, err
		}
		u.metrics.ObserveSubmission(metrics.OutcomeFailed)
		return nil, false, fmt.Errorf("%w: %w", domainErrors.ErrSubmissionFailure, err)
	}

	if !created && !stored.Matches(order.Items, order.Totals()) {
		u.metrics.ObserveSubmission(metrics.OutcomeRejected)
		u.logger.Warn("idempotency key reused for different items", slog.String("order", stored.ID), slog.String("key", key))
		return nil, false, domainErrors.ErrIdempotencyMismatch
	}

	if created {
		u.metrics.ObserveSubmission(metrics.OutcomeCreated)
		u.logger.Info("order placed",
			slog.String("order", stored.ID),
			slog.Int64("user", stored.UserID),
			slog.String("total", stored.TotalPrice.StringFixed(2)),
		)
	} else {
		u.metrics.ObserveSubmission(metrics.OutcomeReplayed)
		u.logger.Info("order submission replayed", slog.String("order", stored.ID), slog.String("key", key))
	}
	return stored, created, nil
}

// Get returns order visible to actor. Customers see only their own orders.
func (u *OrderUseCase) Get(ctx context.Context, actor model.Actor, id string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.UserID != actor.UserID {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// Reviewed reports which items the owner already reviewed. Only delivered
// orders are looked up; for others nothing can be reviewed anyway.
func (u *OrderUseCase) Reviewed(ctx context.Context, order *model.Order) (map[string]bool, error) {
	if order.Status != model.OrderStatusDelivered || len(order.Items) == 0 {
		return map[string]bool{}, nil
	}
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	return u.reviews.ReviewedProducts(ctx, order.UserID, ids)
}

// ListMine returns orders of user, newest first.
func (u *OrderUseCase) ListMine(ctx context.Context, userID int64) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// List returns orders for the back office.
func (u *OrderUseCase) List(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
	if !actor.IsStaff() {
		return nil, domainErrors.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domainErrors.NewValidationError("status", "must be a known order status")
	}
	return u.orders.List(ctx, filter)
}

// UpdateStatus moves order to another status on behalf of staff. A non empty
// expected status must match the current one.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, actor model.Actor, id string, change model.StatusChange, expected model.OrderStatus) (*model.Order, error) {
	if !actor.IsStaff() {
		return nil, domainErrors.ErrForbidden
	}
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expected != "" && order.Status != expected {
		return nil, fmt.Errorf("%w: order is %s, expected %s", domainErrors.ErrConcurrentModification, order.Status, expected)
	}

	change.At = u.now()
	if err := u.transition(ctx, order, func(o *model.Order) error { return o.ApplyStatus(change) }); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel cancels order. Customers may cancel their own processing orders;
// staff may cancel any order that is not terminal.
func (u *OrderUseCase) Cancel(ctx context.Context, actor model.Actor, id, reason string) (*model.Order, error) {
	order, err := u.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	role := actor.Role
	if !actor.IsStaff() {
		role = model.RoleCustomer
	}

	now := u.now()
	if err := u.transition(ctx, order, func(o *model.Order) error { return o.Cancel(role, reason, now) }); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdatePayment toggles paid flag on behalf of staff. Status is untouched.
func (u *OrderUseCase) UpdatePayment(ctx context.Context, actor model.Actor, id string, paid bool) (*model.Order, error) {
	if !actor.IsStaff() {
		return nil, domainErrors.ErrForbidden
	}
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	version := order.Version
	now := u.now()
	order.SetPaid(paid, now)
	event := model.NewOrderEvent(u.newID(), model.EventOrderPaymentUpdated, order, "", now)
	if err := u.orders.Update(ctx, repository.OrderUpdate{Order: order, ExpectedVersion: version, Event: &event}); err != nil {
		return nil, err
	}
	u.logger.Info("order payment updated", slog.String("order", order.ID), slog.Bool("paid", paid))
	return order, nil
}

func (u *OrderUseCase) transition(ctx context.Context, order *model.Order, apply func(*model.Order) error) error {
	from := order.Status
	version := order.Version
	before := len(order.StatusHistory)

	if err := apply(order); err != nil {
		return err
	}

	appended := append([]model.StatusEntry(nil), order.StatusHistory[before:]...)
	note := ""
	if len(appended) > 0 {
		note = appended[len(appended)-1].Note
	}
	event := model.NewOrderEvent(u.newID(), model.EventOrderStatusChanged, order, note, order.UpdatedAt)
	if err := u.orders.Update(ctx, repository.OrderUpdate{
		Order:           order,
		ExpectedVersion: version,
		Appended:        appended,
		Event:           &event,
	}); err != nil {
		return err
	}

	u.metrics.ObserveTransition(from, order.Status)
	u.logger.Info("order status changed",
		slog.String("order", order.ID),
		slog.String("from", string(from)),
		slog.String("to", string(order.Status)),
	)
	return nil
}
