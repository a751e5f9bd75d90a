package httphandler

import (
	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	// CatalogQuery is decoded from the GET /v1/catalog query string.
	CatalogQuery struct {
		Categories []string `schema:"category"`
		Sizes      []string `schema:"size"`
		Colors     []string `schema:"color"`
		MinPrice   string   `schema:"min_price"`
		MaxPrice   string   `schema:"max_price"`
		Query      string   `schema:"q"`
		Sort       string   `schema:"sort"`
	}

	Item struct {
		domain.Item
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		Price          decimal.Decimal `json:"price"`
		PriceOnRequest bool            `json:"price_on_request"`
	}

	// Facets offer every catalog value with the number of matching
	// items in the response.
	Facets struct {
		Categories     []string         `json:"categories"`
		Sizes          []string         `json:"sizes"`
		Colors         []string         `json:"colors"`
		CategoryCounts map[string]int   `json:"category_counts"`
		SizeCounts     map[string]int   `json:"size_counts"`
		ColorCounts    map[string]int   `json:"color_counts"`
		MinPrice       *decimal.Decimal `json:"min_price,omitempty"`
		MaxPrice       *decimal.Decimal `json:"max_price,omitempty"`
	}

	CatalogResponse struct {
		Items  []Item `json:"items"`
		Facets Facets `json:"facets"`
	}

	CartEntry struct {
		Item
		Quantity int             `json:"quantity"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}

	CartResponse struct {
		Entries    []CartEntry     `json:"entries"`
		TotalItems int             `json:"total_items"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}

	AddItemRequest struct {
		Kind     string `json:"kind"`
		ID       int64  `json:"id"`
		Quantity int    `json:"quantity"`
	}

	UpdateQuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	CheckoutResponse struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}
)

func itemFromDomain(it domain.Item) Item {
	return Item{
		Item:           it,
		ID:             it.ID(),
		Name:           it.DisplayName(),
		Price:          it.Price(),
		PriceOnRequest: !it.HasPrice(),
	}
}

func catalogFromDomain(items []domain.Item, f domain.Facets) CatalogResponse {
	res := CatalogResponse{
		Items: make([]Item, len(items)),
		Facets: Facets{
			Categories:     nonNil(f.Categories),
			Sizes:          nonNil(f.Sizes),
			Colors:         nonNil(f.Colors),
			CategoryCounts: nonNilCounts(f.CategoryCounts),
			SizeCounts:     nonNilCounts(f.SizeCounts),
			ColorCounts:    nonNilCounts(f.ColorCounts),
		},
	}
	for i, it := range items {
		res.Items[i] = itemFromDomain(it)
	}
	if r := f.PriceRange(); r != nil {
		res.Facets.MinPrice = &r.Min
		res.Facets.MaxPrice = &r.Max
	}
	return res
}

func cartFromDomain(entries []domain.CartEntry) CartResponse {
	res := CartResponse{
		Entries:    make([]CartEntry, len(entries)),
		TotalItems: domain.CartTotalItems(entries),
		TotalPrice: domain.CartTotalPrice(entries),
	}
	for i, e := range entries {
		res.Entries[i] = CartEntry{
			Item:     itemFromDomain(e.Item),
			Quantity: e.Quantity,
			Subtotal: e.Subtotal(),
		}
	}
	return res
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
