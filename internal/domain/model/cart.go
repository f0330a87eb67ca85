package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// CartLine is a product snapshot held in the cart.
type CartLine struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
	Stock     int             `json:"countInStock"`
}

// LineTotal returns price multiplied by quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) key() string {
	return l.ProductID + "|" + l.Variant
}

// Cart is an immutable value; every operation returns a new cart.
type Cart struct {
	Lines []CartLine `json:"cartItems"`
}

// IsEmpty reports whether cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Totals derives cart pricing.
func (c Cart) Totals() Totals {
	return ComputeTotals(c.Lines)
}

// OrderItems snapshots lines for an order.
func (c Cart) OrderItems() []OrderItem {
	items := make([]OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, OrderItem{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Image: l.Image, Price: l.Price})
	}
	return items
}

// Fingerprint identifies what would be ordered: products, variants,
// quantities and prices. Line order does not matter.
func (c Cart) Fingerprint() string {
	parts := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		parts = append(parts, l.key()+"|"+strconv.Itoa(l.Quantity)+"|"+l.Price.String())
	}
	sort.Strings(parts)

	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AddLine upserts by product and variant. A duplicate key replaces the stored
// line, quantity included; quantities are not summed.
func (c Cart) AddLine(line CartLine) Cart {
	line.Quantity = clampQuantity(line.Quantity, line.Stock)

	lines := make([]CartLine, 0, len(c.Lines)+1)
	replaced := false
	for _, existing := range c.Lines {
		if existing.key() == line.key() {
			lines = append(lines, line)
			replaced = true
			continue
		}
		lines = append(lines, existing)
	}
	if !replaced {
		lines = append(lines, line)
	}
	return Cart{Lines: lines}
}

// RemoveLine drops the line matching product and variant. Missing lines are ignored.
func (c Cart) RemoveLine(productID, variant string) Cart {
	key := CartLine{ProductID: productID, Variant: variant}.key()
	lines := make([]CartLine, 0, len(c.Lines))
	for _, existing := range c.Lines {
		if existing.key() != key {
			lines = append(lines, existing)
		}
	}
	return Cart{Lines: lines}
}

// SetQuantity updates quantity clamped to [1, stock].
func (c Cart) SetQuantity(productID, variant string, quantity int) (Cart, error) {
	key := CartLine{ProductID: productID, Variant: variant}.key()
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	for i := range lines {
		if lines[i].key() == key {
			lines[i].Quantity = clampQuantity(quantity, lines[i].Stock)
			return Cart{Lines: lines}, nil
		}
	}
	return c, domainErrors.ErrNotFound
}

func clampQuantity(quantity, stock int) int {
	if stock > 0 && quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
