package port

import (
	"context"

	"github.com/niksmo/paintstore/internal/core/domain"
)

type closer interface {
	Close()
}

// A CartSlot is a durable string-keyed store holding serialized carts.
//
// Get returns [domain.ErrNotFound] for a missing key.
type CartSlot interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type CatalogSource interface {
	ListProducts(context.Context) ([]domain.Product, error)
	ListTools(context.Context) ([]domain.Tool, error)
}

type CheckoutEventsProducer interface {
	ProduceCheckout(context.Context, domain.CheckoutEvent) error
	closer
}

// CartMetrics is notified about cart store activity.
type CartMetrics interface {
	CartMutation(op string)
	CartPersistenceAnomaly(reason string)
}

type Metrics interface {
	CartMetrics
	CatalogFiltered(visible int)
	CheckoutHandoff()
	CheckoutEventPublished(err error)
}

type CatalogBrowser interface {
	Browse(
		ctx context.Context, sel domain.FilterSelection, order domain.SortOrder,
	) ([]domain.Item, domain.Facets, error)
}

type CartManager interface {
	CartEntries(ctx context.Context, cartID string) ([]domain.CartEntry, error)
	AddToCart(
		ctx context.Context, cartID string, kind domain.Kind, id int64, qty int,
	) ([]domain.CartEntry, error)
	UpdateCartQuantity(
		ctx context.Context, cartID string, kind domain.Kind, id int64, qty int,
	) ([]domain.CartEntry, error)
	RemoveFromCart(
		ctx context.Context, cartID string, kind domain.Kind, id int64,
	) ([]domain.CartEntry, error)
	ClearCart(ctx context.Context, cartID string) error
}

type CheckoutStarter interface {
	Checkout(ctx context.Context, cartID string) (domain.Checkout, error)
}
