package domain

import "github.com/shopspring/decimal"

// DefaultCartKey is the storage slot the cart lives in.
const DefaultCartKey = "shopping_cart"

// A CartEntry is one line of the cart. Quantity is always positive.
type CartEntry struct {
	Item
	Quantity int `json:"quantity"`
}

func (e CartEntry) Matches(id int64, kind Kind) bool {
	return e.Kind == kind && e.ID() == id
}

// Subtotal is unit price times quantity, zero for "price on request" items.
func (e CartEntry) Subtotal() decimal.Decimal {
	if !e.HasPrice() {
		return decimal.Zero
	}
	return e.Price().Mul(decimal.NewFromInt(int64(e.Quantity)))
}

func (e CartEntry) Clone() CartEntry {
	return CartEntry{Item: e.Item.Clone(), Quantity: e.Quantity}
}

func CartTotalItems(entries []CartEntry) int {
	var n int
	for _, e := range entries {
		n += e.Quantity
	}
	return n
}

func CartTotalPrice(entries []CartEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal())
	}
	return total
}
