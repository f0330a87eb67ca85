package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderUpdate is a persisted mutation of an order. Appended history entries,
// the new order state and the event are written in one transaction, guarded by
// ExpectedVersion.
type OrderUpdate struct {
	Order           *model.Order
	ExpectedVersion int64
	Appended        []model.StatusEntry
	Event           *model.OrderEvent
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order, event model.OrderEvent) (*model.Order, bool, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, update OrderUpdate) error
}
