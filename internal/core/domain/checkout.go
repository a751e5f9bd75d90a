package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	CheckoutEvent struct {
		ID         string
		CartKey    string
		Lines      []CheckoutLine
		TotalItems int
		TotalPrice decimal.Decimal
		CreatedAt  time.Time
	}

	CheckoutLine struct {
		Kind      Kind
		ItemID    int64
		Name      string
		Quantity  int
		UnitPrice decimal.Decimal
		Subtotal  decimal.Decimal
	}
)

// Checkout is the result of a checkout handoff.
type Checkout struct {
	Message string
	URL     string
	Event   CheckoutEvent
}

func CheckoutLinesOf(entries []CartEntry) []CheckoutLine {
	lines := make([]CheckoutLine, len(entries))
	for i, e := range entries {
		lines[i] = CheckoutLine{
			Kind:      e.Kind,
			ItemID:    e.ID(),
			Name:      e.DisplayName(),
			Quantity:  e.Quantity,
			UnitPrice: e.Price(),
			Subtotal:  e.Subtotal(),
		}
	}
	return lines
}
