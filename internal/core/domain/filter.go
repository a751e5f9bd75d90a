package domain

import "github.com/shopspring/decimal"

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Normalize swaps the bounds when Min is greater than Max.
func (r PriceRange) Normalize() PriceRange {
	if r.Min.GreaterThan(r.Max) {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

// Contains is inclusive on both ends. r must be normalized.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// A FilterSelection holds the active catalog criteria.
//
// Empty sets, nil Price and an empty Query put no constraint
// on their dimension.
type FilterSelection struct {
	Categories []string
	Sizes      []string
	Colors     []string
	Price      *PriceRange
	Query      string
}

func (s FilterSelection) Clone() FilterSelection {
	out := FilterSelection{
		Categories: append([]string(nil), s.Categories...),
		Sizes:      append([]string(nil), s.Sizes...),
		Colors:     append([]string(nil), s.Colors...),
		Query:      s.Query,
	}
	if s.Price != nil {
		r := *s.Price
		out.Price = &r
	}
	return out
}

type SortOrder string

const (
	SortNone      SortOrder = ""
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// Facets are the distinct values offered by the filter UI.
//
// The counts tell how many of the currently visible items carry each
// value. A value with no visible item counts 0.
type Facets struct {
	Categories []string
	Sizes      []string
	Colors     []string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	HasPrices  bool

	CategoryCounts map[string]int
	SizeCounts     map[string]int
	ColorCounts    map[string]int
}

// PriceRange is the default range for the price filter,
// nil until some priced item is known.
func (f Facets) PriceRange() *PriceRange {
	if !f.HasPrices {
		return nil
	}
	return &PriceRange{Min: f.MinPrice, Max: f.MaxPrice}
}
