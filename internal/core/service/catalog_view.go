package service

import (
	"slices"
	"sync"
	"time"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/pkg/debounce"
	"github.com/shopspring/decimal"
)

const DefaultSearchDebounce = 300 * time.Millisecond

type CatalogViewOpt func(*catalogViewOpts)

type catalogViewOpts struct {
	debounce time.Duration
	onChange func([]domain.Item)
}

func SearchDebounceOpt(d time.Duration) CatalogViewOpt {
	return func(o *catalogViewOpts) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// OnChangeOpt registers the callback receiving the visible items after
// every re-filter. Calls never overlap and never go back in time: a result
// that was overtaken by a newer one is dropped. fn must not call back into
// the view.
func OnChangeOpt(fn func([]domain.Item)) CatalogViewOpt {
	return func(o *catalogViewOpts) {
		o.onChange = fn
	}
}

// A CatalogView keeps the catalog screen state: the item snapshot, the
// filter selection and the visible items.
//
// Selection changes re-filter at once, query changes are debounced and
// an unchanged query does not re-filter.
type CatalogView struct {
	mu       sync.Mutex
	items    []domain.Item
	sel      domain.FilterSelection
	order    domain.SortOrder
	visible  []domain.Item
	onChange func([]domain.Item)
	query    *debounce.Debouncer[string]
	seq      uint64

	deliverMu sync.Mutex
	delivered uint64
}

func NewCatalogView(opts ...CatalogViewOpt) *CatalogView {
	options := catalogViewOpts{debounce: DefaultSearchDebounce}
	for _, opt := range opts {
		opt(&options)
	}

	v := &CatalogView{
		onChange: options.onChange,
		visible:  []domain.Item{},
	}
	v.query = debounce.New(
		options.debounce,
		v.applyQuery,
		debounce.WithEqual(func(a, b string) bool { return a == b }),
		debounce.WithInitial(""),
	)
	return v
}

// SetItems replaces the item snapshot.
func (v *CatalogView) SetItems(items []domain.Item) {
	items = slices.Clone(items)
	v.update(func() { v.items = items })
}

// SetQuery schedules the free-text query.
func (v *CatalogView) SetQuery(q string) {
	v.query.Call(q)
}

// FlushQuery applies a scheduled query without waiting.
func (v *CatalogView) FlushQuery() {
	v.query.Flush()
}

func (v *CatalogView) ToggleCategory(c string) {
	v.update(func() { v.sel.Categories = toggle(v.sel.Categories, c) })
}

func (v *CatalogView) ToggleSize(s string) {
	v.update(func() { v.sel.Sizes = toggle(v.sel.Sizes, s) })
}

func (v *CatalogView) ToggleColor(c string) {
	v.update(func() { v.sel.Colors = toggle(v.sel.Colors, c) })
}

func (v *CatalogView) SetPriceRange(min, max decimal.Decimal) {
	v.update(func() { v.sel.Price = &domain.PriceRange{Min: min, Max: max} })
}

func (v *CatalogView) ClearPriceRange() {
	v.update(func() { v.sel.Price = nil })
}

func (v *CatalogView) SetSort(order domain.SortOrder) {
	v.update(func() { v.order = order })
}

// Reset clears the selection and any scheduled query.
func (v *CatalogView) Reset() {
	v.query.Reset("")
	v.update(func() {
		v.sel = domain.FilterSelection{}
		v.order = domain.SortNone
	})
}

func (v *CatalogView) Visible() []domain.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.visible)
}

func (v *CatalogView) Selection() domain.FilterSelection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel.Clone()
}

// Facets offers the values of the whole snapshot, counted over the
// visible items.
func (v *CatalogView) Facets() domain.Facets {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CountFacets(collectFacets(v.items), v.visible)
}

// Close stops the query debouncer.
func (v *CatalogView) Close() {
	v.query.Stop()
}

func (v *CatalogView) applyQuery(q string) {
	v.update(func() { v.sel.Query = q })
}

func (v *CatalogView) update(change func()) {
	v.mu.Lock()
	change()
	v.visible = SortCatalog(FilterCatalog(v.items, v.sel), v.order)
	v.seq++
	seq := v.seq
	out := slices.Clone(v.visible)
	onChange := v.onChange
	v.mu.Unlock()

	if onChange != nil {
		v.deliver(seq, out, onChange)
	}
}

func (v *CatalogView) deliver(seq uint64, out []domain.Item, fn func([]domain.Item)) {
	v.deliverMu.Lock()
	defer v.deliverMu.Unlock()
	if seq <= v.delivered {
		return
	}
	v.delivered = seq
	fn(out)
}

func toggle(set []string, v string) []string {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
