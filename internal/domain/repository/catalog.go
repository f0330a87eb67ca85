package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ProductCatalog provides product snapshots owned by the catalog.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// ReviewLookup tells which products a user already reviewed.
type ReviewLookup interface {
	ReviewedProducts(ctx context.Context, userID int64, productIDs []string) (map[string]bool, error)
}
