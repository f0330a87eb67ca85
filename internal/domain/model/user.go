package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered storefront account.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsStaff reports whether actor may run back office operations.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}

// Product is the catalog snapshot needed to put an item into a cart.
type Product struct {
	ID         string
	Name       string
	Image      string
	PriceCents int64
	Stock      int
}

// Price returns unit price as decimal.
func (p Product) Price() decimal.Decimal {
	return FromCents(p.PriceCents)
}
