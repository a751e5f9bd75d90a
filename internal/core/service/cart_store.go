package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/shopspring/decimal"
)

type CartStoreOpt func(*cartStoreOpts)

type cartStoreOpts struct {
	key     string
	strict  bool
	metrics port.CartMetrics
}

// CartKeyOpt binds the store to the slot key. Default is [domain.DefaultCartKey].
func CartKeyOpt(key string) CartStoreOpt {
	return func(o *cartStoreOpts) {
		if key != "" {
			o.key = key
		}
	}
}

// StrictQuantityOpt makes non-positive quantities an error instead of
// being clamped (AddItem) or treated as removal (UpdateQuantity, below zero).
func StrictQuantityOpt(strict bool) CartStoreOpt {
	return func(o *cartStoreOpts) {
		o.strict = strict
	}
}

func CartMetricsOpt(m port.CartMetrics) CartStoreOpt {
	return func(o *cartStoreOpts) {
		if m != nil {
			o.metrics = m
		}
	}
}

// A CartStore owns one cart bound to one storage slot.
//
// Every mutation writes the whole cart to the slot. Storage faults never
// reach the caller: they are logged and the in-memory state stays the
// source of truth.
type CartStore struct {
	mu      sync.Mutex
	slot    port.CartSlot
	key     string
	strict  bool
	metrics port.CartMetrics
	entries []domain.CartEntry
}

// NewCartStore creates the store and hydrates it from the slot.
// A missing or malformed value yields an empty cart.
func NewCartStore(
	ctx context.Context, slot port.CartSlot, opts ...CartStoreOpt,
) *CartStore {
	const op = "NewCartStore"

	if slot == nil {
		panic(fmt.Errorf("%s: cart slot is nil", op)) // develop mistake
	}

	options := cartStoreOpts{
		key:     domain.DefaultCartKey,
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := &CartStore{
		slot:    slot,
		key:     options.key,
		strict:  options.strict,
		metrics: options.metrics,
	}
	s.hydrate(ctx)
	return s
}

func (s *CartStore) Key() string {
	return s.key
}

func (s *CartStore) AddItem(
	ctx context.Context, item domain.Item, quantity int,
) error {
	const op = "CartStore.AddItem"

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if quantity < 1 {
		if s.strict {
			return fmt.Errorf("%s: %w: %d", op, domain.ErrInvalidQuantity, quantity)
		}
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.ID(), item.Kind); i >= 0 {
		s.entries[i].Quantity += quantity
	} else {
		s.entries = append(s.entries, domain.CartEntry{
			Item:     item.Clone(),
			Quantity: quantity,
		})
	}

	s.metrics.CartMutation("add")
	s.persist(ctx)
	return nil
}

// RemoveItem is a no-op for an absent entry.
func (s *CartStore) RemoveItem(ctx context.Context, id int64, kind domain.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(ctx, id, kind)
}

// UpdateQuantity sets the quantity exactly. Zero or less removes the entry.
func (s *CartStore) UpdateQuantity(
	ctx context.Context, id int64, kind domain.Kind, quantity int,
) error {
	const op = "CartStore.UpdateQuantity"

	if quantity < 0 && s.strict {
		return fmt.Errorf("%s: %w: %d", op, domain.ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(ctx, id, kind)
		return nil
	}

	if i := s.indexOf(id, kind); i >= 0 {
		s.entries[i].Quantity = quantity
	}

	s.metrics.CartMutation("update")
	s.persist(ctx)
	return nil
}

func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.metrics.CartMutation("clear")
	s.persist(ctx)
}

func (s *CartStore) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotalItems(s.entries)
}

// TotalPrice skips entries without a positive price.
func (s *CartStore) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotalPrice(s.entries)
}

// Entries returns a deep copy of the cart in insertion order.
func (s *CartStore) Entries() []domain.CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

func (s *CartStore) remove(ctx context.Context, id int64, kind domain.Kind) {
	if i := s.indexOf(id, kind); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	s.metrics.CartMutation("remove")
	s.persist(ctx)
}

func (s *CartStore) indexOf(id int64, kind domain.Kind) int {
	for i, e := range s.entries {
		if e.Matches(id, kind) {
			return i
		}
	}
	return -1
}

func (s *CartStore) persist(ctx context.Context) {
	const op = "CartStore.persist"
	log := slog.With("op", op, "key", s.key)

	entries := s.entries
	if entries == nil {
		entries = []domain.CartEntry{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		log.Error("failed to encode cart", "err", err)
		s.metrics.CartPersistenceAnomaly("encode")
		return
	}

	if err := s.slot.Set(ctx, s.key, string(b)); err != nil {
		log.Error("failed to write cart slot", "err", err)
		s.metrics.CartPersistenceAnomaly("write")
	}
}

func (s *CartStore) hydrate(ctx context.Context) {
	const op = "CartStore.hydrate"
	log := slog.With("op", op, "key", s.key)

	raw, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		log.Warn("failed to read cart slot, starting empty", "err", err)
		s.metrics.CartPersistenceAnomaly("read")
		return
	}

	var stored []domain.CartEntry
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Warn("malformed cart in slot, starting empty", "err", err)
		s.metrics.CartPersistenceAnomaly("malformed")
		return
	}

	for _, e := range stored {
		if err := e.Validate(); err != nil {
			log.Warn("dropping invalid cart entry", "err", err)
			s.metrics.CartPersistenceAnomaly("invalid_entry")
			continue
		}
		if e.Quantity < 1 {
			log.Warn("dropping cart entry without quantity",
				"kind", e.Kind, "id", e.ID(), "quantity", e.Quantity)
			s.metrics.CartPersistenceAnomaly("invalid_quantity")
			continue
		}
		if i := s.indexOf(e.ID(), e.Kind); i >= 0 {
			log.Warn("merging duplicate cart entry", "kind", e.Kind, "id", e.ID())
			s.metrics.CartPersistenceAnomaly("duplicate_entry")
			s.entries[i].Quantity += e.Quantity
			continue
		}
		s.entries = append(s.entries, e)
	}
}

type noopMetrics struct{}

func (noopMetrics) CartMutation(string)           {}
func (noopMetrics) CartPersistenceAnomaly(string) {}
func (noopMetrics) CatalogFiltered(int)           {}
func (noopMetrics) CheckoutHandoff()              {}
func (noopMetrics) CheckoutEventPublished(error)  {}
