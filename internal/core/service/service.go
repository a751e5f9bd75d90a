package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"golang.org/x/sync/singleflight"
)

var _ port.CatalogBrowser = (*Service)(nil)
var _ port.CartManager = (*Service)(nil)
var _ port.CheckoutStarter = (*Service)(nil)

const (
	DefaultCatalogTTL  = time.Minute
	DefaultMaxCarts    = 10000
	DefaultCartIdleTTL = 30 * time.Minute
)

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Config struct {
	CartKey        string
	StrictQuantity bool
	CatalogTTL     time.Duration
	Checkout       CheckoutConfig

	// MaxCarts bounds the hydrated carts kept in memory. Carts idle for
	// CartIdleTTL are dropped first, then the least recently used.
	// A dropped cart is hydrated again from its slot on next use.
	MaxCarts    int
	CartIdleTTL time.Duration
}

type cachedCart struct {
	store    *CartStore
	lastUsed time.Time
}

type Service struct {
	cfg       Config
	slot      port.CartSlot
	catalog   port.CatalogSource
	producer  port.CheckoutEventsProducer
	metrics   port.Metrics
	formatter CheckoutFormatter
	now       func() time.Time

	cartsMu   sync.Mutex
	carts     map[string]*cachedCart
	lastSweep time.Time

	snapMu   sync.RWMutex
	snapshot []domain.Item
	snapAt   time.Time
	sfg      singleflight.Group
}

// New creates the storefront service. The producer and metrics
// may be nil.
func New(
	cfg Config,
	slot port.CartSlot,
	catalog port.CatalogSource,
	producer port.CheckoutEventsProducer,
	metrics port.Metrics,
) *Service {
	const op = "service.New"

	if slot == nil || catalog == nil {
		panic(fmt.Errorf("%s: cart slot and catalog source are required", op)) // develop mistake
	}

	if cfg.CartKey == "" {
		cfg.CartKey = domain.DefaultCartKey
	}
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = DefaultCatalogTTL
	}
	if cfg.MaxCarts <= 0 {
		cfg.MaxCarts = DefaultMaxCarts
	}
	if cfg.CartIdleTTL <= 0 {
		cfg.CartIdleTTL = DefaultCartIdleTTL
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Service{
		cfg:       cfg,
		slot:      slot,
		catalog:   catalog,
		producer:  producer,
		metrics:   metrics,
		formatter: NewCheckoutFormatter(cfg.Checkout),
		now:       time.Now,
		carts:     make(map[string]*cachedCart),
	}
}

func (s *Service) Close() {
	if s.producer != nil {
		s.producer.Close()
	}
}

// Cart returns the store bound to the cart's slot, hydrating it on first use.
// An empty cartID selects the default slot.
func (s *Service) Cart(ctx context.Context, cartID string) (*CartStore, error) {
	const op = "Service.Cart"

	key := s.cfg.CartKey
	if cartID != "" {
		if !cartIDPattern.MatchString(cartID) {
			return nil, fmt.Errorf("%s: %w: %q", op, domain.ErrInvalidCartID, cartID)
		}
		key += ":" + cartID
	}

	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	now := s.now()
	if c, ok := s.carts[key]; ok {
		c.lastUsed = now
		return c.store, nil
	}

	s.evictCarts(now)

	// an aborted request must not leave an empty cart cached over the slot
	c := NewCartStore(
		context.WithoutCancel(ctx),
		s.slot,
		CartKeyOpt(key),
		StrictQuantityOpt(s.cfg.StrictQuantity),
		CartMetricsOpt(s.metrics),
	)
	s.carts[key] = &cachedCart{store: c, lastUsed: now}
	return c, nil
}

// evictCarts makes room for one more cart. cartsMu must be held.
func (s *Service) evictCarts(now time.Time) {
	if now.Sub(s.lastSweep) >= s.cfg.CartIdleTTL {
		s.lastSweep = now
		for key, c := range s.carts {
			if now.Sub(c.lastUsed) >= s.cfg.CartIdleTTL {
				delete(s.carts, key)
			}
		}
	}

	for len(s.carts) >= s.cfg.MaxCarts {
		var (
			oldestKey string
			oldest    time.Time
		)
		for key, c := range s.carts {
			if oldestKey == "" || c.lastUsed.Before(oldest) {
				oldestKey, oldest = key, c.lastUsed
			}
		}
		delete(s.carts, oldestKey)
	}
}

// Catalog returns the current item snapshot, products first.
//
// The snapshot is shared and must not be modified. A failed refresh
// serves the stale snapshot when there is one.
func (s *Service) Catalog(ctx context.Context) ([]domain.Item, error) {
	const op = "Service.Catalog"
	log := slog.With("op", op)

	s.snapMu.RLock()
	items, at := s.snapshot, s.snapAt
	s.snapMu.RUnlock()

	if items != nil && s.now().Sub(at) < s.cfg.CatalogTTL {
		return items, nil
	}

	v, err, _ := s.sfg.Do("catalog", func() (any, error) {
		return s.loadCatalog(ctx)
	})
	if err != nil {
		if items != nil {
			log.Warn("serving stale catalog", "err", err)
			return items, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v.([]domain.Item), nil
}

func (s *Service) Browse(
	ctx context.Context, sel domain.FilterSelection, order domain.SortOrder,
) ([]domain.Item, domain.Facets, error) {
	const op = "Service.Browse"

	items, err := s.Catalog(ctx)
	if err != nil {
		return nil, domain.Facets{}, fmt.Errorf("%s: %w", op, err)
	}

	visible := SortCatalog(FilterCatalog(items, sel), order)
	s.metrics.CatalogFiltered(len(visible))
	return visible, CountFacets(collectFacets(items), visible), nil
}

func (s *Service) CartEntries(
	ctx context.Context, cartID string,
) ([]domain.CartEntry, error) {
	const op = "Service.CartEntries"

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.Entries(), nil
}

// AddToCart resolves the item from the catalog snapshot and adds it.
func (s *Service) AddToCart(
	ctx context.Context, cartID string, kind domain.Kind, id int64, qty int,
) ([]domain.CartEntry, error) {
	const op = "Service.AddToCart"

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item, err := s.findItem(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.AddItem(ctx, item, qty); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.Entries(), nil
}

func (s *Service) UpdateCartQuantity(
	ctx context.Context, cartID string, kind domain.Kind, id int64, qty int,
) ([]domain.CartEntry, error) {
	const op = "Service.UpdateCartQuantity"

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.UpdateQuantity(ctx, id, kind, qty); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.Entries(), nil
}

func (s *Service) RemoveFromCart(
	ctx context.Context, cartID string, kind domain.Kind, id int64,
) ([]domain.CartEntry, error) {
	const op = "Service.RemoveFromCart"

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.RemoveItem(ctx, id, kind)
	return c.Entries(), nil
}

func (s *Service) ClearCart(ctx context.Context, cartID string) error {
	const op = "Service.ClearCart"

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.Clear(ctx)
	return nil
}

// Checkout builds the handoff link for the cart. The checkout event is
// published best-effort: a broker failure does not fail the checkout.
func (s *Service) Checkout(
	ctx context.Context, cartID string,
) (domain.Checkout, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op)

	c, err := s.Cart(ctx, cartID)
	if err != nil {
		return domain.Checkout{}, fmt.Errorf("%s: %w", op, err)
	}

	entries := c.Entries()
	msg, link, err := s.formatter.Handoff(entries)
	if err != nil {
		return domain.Checkout{}, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.CheckoutHandoff()

	evt := domain.CheckoutEvent{
		ID:         uuid.NewString(),
		CartKey:    c.Key(),
		Lines:      domain.CheckoutLinesOf(entries),
		TotalItems: domain.CartTotalItems(entries),
		TotalPrice: domain.CartTotalPrice(entries),
		CreatedAt:  s.now().UTC(),
	}

	if s.producer != nil {
		err := s.producer.ProduceCheckout(ctx, evt)
		s.metrics.CheckoutEventPublished(err)
		if err != nil {
			log.Error("failed to publish checkout event",
				"cart", c.Key(), "event", evt.ID, "err", err)
		}
	}

	return domain.Checkout{Message: msg, URL: link, Event: evt}, nil
}

func (s *Service) findItem(
	ctx context.Context, kind domain.Kind, id int64,
) (domain.Item, error) {
	items, err := s.Catalog(ctx)
	if err != nil {
		return domain.Item{}, err
	}
	for _, it := range items {
		if it.Kind == kind && it.ID() == id {
			return it, nil
		}
	}
	return domain.Item{}, fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
}

func (s *Service) loadCatalog(ctx context.Context) ([]domain.Item, error) {
	const op = "Service.loadCatalog"
	log := slog.With("op", op)

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: products: %w", op, err)
	}

	tools, err := s.catalog.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: tools: %w", op, err)
	}

	items := make([]domain.Item, 0, len(products)+len(tools))
	for _, p := range products {
		items = append(items, domain.ProductItem(p))
	}
	for _, t := range tools {
		items = append(items, domain.ToolItem(t))
	}

	s.snapMu.Lock()
	s.snapshot = items
	s.snapAt = s.now()
	s.snapMu.Unlock()

	log.Info("catalog loaded", "products", len(products), "tools", len(tools))
	return items, nil
}
