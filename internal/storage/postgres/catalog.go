package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

type productRepository struct {
	storage *Storage
}

type reviewRepository struct {
	storage *Storage
}

func (r *productRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	const query = `SELECT id, name, image, price_cents, stock FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Image, &p.PriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *reviewRepository) ReviewedProducts(ctx context.Context, userID int64, productIDs []string) (map[string]bool, error) {
	reviewed := make(map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return reviewed, nil
	}

	const query = `SELECT product_id FROM reviews WHERE user_id=$1 AND product_id = ANY($2)`
	rows, err := r.storage.pool.Query(ctx, query, userID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		reviewed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviewed, nil
}
