package usecase

import (
	"context"
	"fmt"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CartUseCase keeps the buyer's cart in sync with the cart store.
type CartUseCase struct {
	products repository.ProductCatalog
	carts    repository.CartStore
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(products repository.ProductCatalog, carts repository.CartStore) *CartUseCase {
	return &CartUseCase{products: products, carts: carts}
}

// Cart returns the stored cart of owner.
func (u *CartUseCase) Cart(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return u.carts.LoadCart(ctx, owner)
}

// AddItem puts a product snapshot into the cart. Adding a line that is
// already present replaces its quantity.
func (u *CartUseCase) AddItem(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.Cart{}, domainErrors.NewValidationError("product", "is required")
	}
	if quantity < 1 {
		return model.Cart{}, domainErrors.NewValidationError("quantity", "must be at least 1")
	}

	product, err := u.products.GetProduct(ctx, productID)
	if err != nil {
		return model.Cart{}, fmt.Errorf("load product %s: %w", productID, err)
	}
	if product.Stock <= 0 {
		return model.Cart{}, domainErrors.NewValidationError("product", "is out of stock")
	}

	cart, err := u.carts.LoadCart(ctx, owner)
	if err != nil {
		return model.Cart{}, err
	}

	cart = cart.AddLine(model.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Price:     product.Price(),
		Quantity:  quantity,
		Variant:   strings.TrimSpace(variant),
		Stock:     product.Stock,
	})
	if err := u.carts.SaveCart(ctx, owner, cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// UpdateQuantity changes quantity of an existing line, clamped to stock.
func (u *CartUseCase) UpdateQuantity(ctx context.Context, owner model.CartOwner, productID, variant string, quantity int) (model.Cart, error) {
	if quantity < 1 {
		return model.Cart{}, domainErrors.NewValidationError("quantity", "must be at least 1")
	}

	cart, err := u.carts.LoadCart(ctx, owner)
	if err != nil {
		return model.Cart{}, err
	}
	updated, err := cart.SetQuantity(productID, strings.TrimSpace(variant), quantity)
	if err != nil {
		return model.Cart{}, fmt.Errorf("cart line %s: %w", productID, err)
	}
	if err := u.carts.SaveCart(ctx, owner, updated); err != nil {
		return model.Cart{}, err
	}
	return updated, nil
}

// RemoveItem drops a line. Removing an absent line is not an error.
func (u *CartUseCase) RemoveItem(ctx context.Context, owner model.CartOwner, productID, variant string) (model.Cart, error) {
	cart, err := u.carts.LoadCart(ctx, owner)
	if err != nil {
		return model.Cart{}, err
	}
	updated := cart.RemoveLine(productID, strings.TrimSpace(variant))
	if err := u.carts.SaveCart(ctx, owner, updated); err != nil {
		return model.Cart{}, err
	}
	return updated, nil
}
