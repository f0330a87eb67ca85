package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const orderColumns = `id, user_id, items, shipping_address, payment_method, payment_result,
        items_price_cents, shipping_price_cents, tax_price_cents, total_price_cents,
        is_paid, paid_at, status, delivered_at, cancelled_at, cancel_reason,
        tracking_number, estimated_delivery, idempotency_key, version, created_at, updated_at`

type orderRepository struct {
	storage *Storage
}

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create stores order, its first history entry and the creation event at once.
// A replayed idempotency key returns the stored order instead.
func (r *orderRepository) Create(ctx context.Context, order *model.Order, event model.OrderEvent) (*model.Order, bool, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, false, fmt.Errorf("encode items: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, false, fmt.Errorf("encode address: %w", err)
	}
	var paymentResult []byte
	if order.PaymentResult != nil {
		if paymentResult, err = json.Marshal(order.PaymentResult); err != nil {
			return nil, false, fmt.Errorf("encode payment result: %w", err)
		}
	}

	const insertOrder = `INSERT INTO orders (id, user_id, items, shipping_address, payment_method, payment_result,
            items_price_cents, shipping_price_cents, tax_price_cents, total_price_cents,
            status, idempotency_key, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (idempotency_key) DO NOTHING
        RETURNING id`

	var (
		result  *model.Order
		created bool
	)
	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, insertOrder,
			order.ID, order.UserID, items, address, order.PaymentMethod, paymentResult,
			model.Cents(order.ItemsPrice), model.Cents(order.ShippingPrice), model.Cents(order.TaxPrice), model.Cents(order.TotalPrice),
			order.Status, order.IdempotencyKey, order.Version, order.CreatedAt, order.UpdatedAt,
		).Scan(&id)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			existing, err := r.getBy(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key=$1`, order.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing.UserID != order.UserID {
				return domainErrors.ErrAlreadyExists
			}
			result = existing
			return nil
		}

		if err := insertHistory(ctx, tx, order.ID, order.StatusHistory); err != nil {
			return err
		}
		if err := r.storage.insertEvent(ctx, tx, event); err != nil {
			return err
		}
		result = order
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getBy(ctx, r.storage.pool, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *orderRepository) getBy(ctx context.Context, q querier, query string, arg any) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if order.StatusHistory, err = loadHistory(ctx, q, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns orders without history, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// List returns orders for staff, optionally narrowed by status.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	const query = `SELECT ` + orderColumns + ` FROM orders
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	return r.list(ctx, query, string(filter.Status), limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes the new order state when the stored version still matches.
func (r *orderRepository) Update(ctx context.Context, update repository.OrderUpdate) error {
	o := update.Order
	if o == nil {
		return fmt.Errorf("update order: nil order")
	}

	const updateOrder = `UPDATE orders SET status=$1, is_paid=$2, paid_at=$3, delivered_at=$4,
            cancelled_at=$5, cancel_reason=$6, tracking_number=$7, estimated_delivery=$8,
            version=version+1, updated_at=$9
        WHERE id=$10 AND version=$11`

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateOrder,
			o.Status, o.IsPaid, o.PaidAt, o.DeliveredAt,
			o.CancelledAt, o.CancelReason, o.TrackingNumber, o.EstimatedDelivery,
			o.UpdatedAt, o.ID, update.ExpectedVersion,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var version int64
			err := tx.QueryRow(ctx, `SELECT version FROM orders WHERE id=$1`, o.ID).Scan(&version)
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: order %s is at version %d, expected %d",
				domainErrors.ErrConcurrentModification, o.ID, version, update.ExpectedVersion)
		}

		if err := insertHistory(ctx, tx, o.ID, update.Appended); err != nil {
			return err
		}
		if update.Event != nil {
			return r.storage.insertEvent(ctx, tx, *update.Event)
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.Version = update.ExpectedVersion + 1
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID string, entries []model.StatusEntry) error {
	const query = `INSERT INTO order_status_history (order_id, status, note, created_at) VALUES ($1, $2, $3, $4)`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, orderID, e.Status, e.Note, e.Timestamp); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

func loadHistory(ctx context.Context, q querier, orderID string) ([]model.StatusEntry, error) {
	const query = `SELECT status, note, created_at FROM order_status_history WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.StatusEntry
	for rows.Next() {
		var e model.StatusEntry
		if err := rows.Scan(&e.Status, &e.Note, &e.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o                                        model.Order
		items, address, paymentResult            []byte
		itemsCents, shippingCents, taxCents, tot int64
		paidAt, deliveredAt, cancelledAt, eta    *time.Time
	)
	err := row.Scan(
		&o.ID, &o.UserID, &items, &address, &o.PaymentMethod, &paymentResult,
		&itemsCents, &shippingCents, &taxCents, &tot,
		&o.IsPaid, &paidAt, &o.Status, &deliveredAt, &cancelledAt, &o.CancelReason,
		&o.TrackingNumber, &eta, &o.IdempotencyKey, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode address of order %s: %w", o.ID, err)
	}
	if len(paymentResult) > 0 {
		o.PaymentResult = &model.PaymentResult{}
		if err := json.Unmarshal(paymentResult, o.PaymentResult); err != nil {
			return nil, fmt.Errorf("decode payment result of order %s: %w", o.ID, err)
		}
	}

	o.ItemsPrice = model.FromCents(itemsCents)
	o.ShippingPrice = model.FromCents(shippingCents)
	o.TaxPrice = model.FromCents(taxCents)
	o.TotalPrice = model.FromCents(tot)
	o.PaidAt, o.DeliveredAt, o.CancelledAt, o.EstimatedDelivery = paidAt, deliveredAt, cancelledAt, eta
	return &o, nil
}
