package service

import (
	"slices"
	"strings"

	"github.com/niksmo/paintstore/internal/core/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var catalogLanguage = language.BrazilianPortuguese

// FilterCatalog returns the items matching sel, in input order.
//
// Stages are applied as a conjunction, each one narrowing the output of the
// previous one: category, size, color, price range, free-text query.
// The input slice is never modified.
func FilterCatalog(
	items []domain.Item, sel domain.FilterSelection,
) []domain.Item {
	out := keepIf(items, inSet(sel.Categories, domain.Item.Category))
	out = keepIf(out, inSet(sel.Sizes, domain.Item.Size))
	out = keepIf(out, inSet(sel.Colors, domain.Item.Color))

	if sel.Price != nil {
		r := sel.Price.Normalize()
		out = keepIf(out, func(it domain.Item) bool {
			return r.Contains(it.Price())
		})
	}

	if q := strings.TrimSpace(sel.Query); q != "" {
		m := newTextMatcher(q)
		out = keepIf(out, m.match)
	}

	return out
}

// SortCatalog returns a sorted copy of items. Sorting is stable and items
// without a price go last for both price orders. An unknown order returns
// the copy as is.
func SortCatalog(items []domain.Item, order domain.SortOrder) []domain.Item {
	out := slices.Clone(items)
	if out == nil {
		out = []domain.Item{}
	}

	switch order {
	case domain.SortNameAsc, domain.SortNameDesc:
		col := collate.New(catalogLanguage, collate.IgnoreCase)
		desc := order == domain.SortNameDesc
		slices.SortStableFunc(out, func(a, b domain.Item) int {
			c := col.CompareString(a.DisplayName(), b.DisplayName())
			if desc {
				return -c
			}
			return c
		})
	case domain.SortPriceAsc, domain.SortPriceDesc:
		desc := order == domain.SortPriceDesc
		slices.SortStableFunc(out, func(a, b domain.Item) int {
			switch ap, bp := a.HasPrice(), b.HasPrice(); {
			case !ap && !bp:
				return 0
			case !ap:
				return 1
			case !bp:
				return -1
			}
			c := a.Price().Cmp(b.Price())
			if desc {
				return -c
			}
			return c
		})
	}
	return out
}

// CatalogFacets collects the distinct filter values and the price bounds
// of the priced items. Every value is counted over items.
func CatalogFacets(items []domain.Item) domain.Facets {
	return CountFacets(collectFacets(items), items)
}

// CountFacets returns f with the values counted over visible,
// usually the filtered subset of the items f was collected from.
func CountFacets(f domain.Facets, visible []domain.Item) domain.Facets {
	f.CategoryCounts = zeroCounts(f.Categories)
	f.SizeCounts = zeroCounts(f.Sizes)
	f.ColorCounts = zeroCounts(f.Colors)

	for _, it := range visible {
		countValue(f.CategoryCounts, it.Category())
		countValue(f.SizeCounts, it.Size())
		countValue(f.ColorCounts, it.Color())
	}
	return f
}

func collectFacets(items []domain.Item) domain.Facets {
	var f domain.Facets
	categories := make(map[string]struct{})
	sizes := make(map[string]struct{})
	colors := make(map[string]struct{})

	for _, it := range items {
		addValue(categories, it.Category())
		addValue(sizes, it.Size())
		addValue(colors, it.Color())

		if !it.HasPrice() {
			continue
		}
		p := it.Price()
		if !f.HasPrices {
			f.MinPrice, f.MaxPrice, f.HasPrices = p, p, true
			continue
		}
		if p.LessThan(f.MinPrice) {
			f.MinPrice = p
		}
		if p.GreaterThan(f.MaxPrice) {
			f.MaxPrice = p
		}
	}

	col := collate.New(catalogLanguage, collate.IgnoreCase)
	f.Categories = sortedValues(col, categories)
	f.Sizes = sortedValues(col, sizes)
	f.Colors = sortedValues(col, colors)
	return f
}

func keepIf(
	items []domain.Item, keep func(domain.Item) bool,
) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func inSet(
	values []string, field func(domain.Item) string,
) func(domain.Item) bool {
	if len(values) == 0 {
		return func(domain.Item) bool { return true }
	}

	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(it domain.Item) bool {
		_, ok := set[field(it)]
		return ok
	}
}

// A textMatcher is not safe for concurrent use.
type textMatcher struct {
	caser cases.Caser
	query string
}

func newTextMatcher(query string) textMatcher {
	c := cases.Fold()
	return textMatcher{caser: c, query: c.String(query)}
}

func (m textMatcher) match(it domain.Item) bool {
	for _, field := range it.SearchFields() {
		if field == "" {
			continue
		}
		if strings.Contains(m.caser.String(field), m.query) {
			return true
		}
	}
	return false
}

func zeroCounts(values []string) map[string]int {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v] = 0
	}
	return counts
}

func countValue(counts map[string]int, v string) {
	if _, ok := counts[v]; ok {
		counts[v]++
	}
}

func addValue(set map[string]struct{}, v string) {
	if strings.TrimSpace(v) != "" {
		set[v] = struct{}{}
	}
}

func sortedValues(col *collate.Collator, set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
