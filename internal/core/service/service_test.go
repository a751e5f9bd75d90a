package service_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sourceProducts() []domain.Product {
	return []domain.Product{
		paint(1, "Tinta Acrílica Fosca", "Tinta Líquida", "18L", "Branco", "289.90"),
		paint(2, "Esmalte Sintético", "Esmalte", "3,6L", "Azul Royal", "89.50"),
	}
}

func sourceTools() []domain.Tool {
	return []domain.Tool{tool(1, "Rolo de Lã", "39.90")}
}

func newCatalogSource() *MockCatalogSource {
	src := &MockCatalogSource{}
	src.On("ListProducts", mock.Anything).Return(sourceProducts(), nil)
	src.On("ListTools", mock.Anything).Return(sourceTools(), nil)
	return src
}

func testConfig() service.Config {
	return service.Config{
		CatalogTTL: time.Hour,
		Checkout: service.CheckoutConfig{
			Phone:    "5511999998888",
			Greeting: service.DefaultCheckoutGreet,
		},
	}
}

func TestServiceCatalog(t *testing.T) {
	t.Run("BrowseUsesCachedSnapshot", func(t *testing.T) {
		src := newCatalogSource()
		s := service.New(testConfig(), newMapSlot(), src, nil, nil)

		items, facets, err := s.Browse(t.Context(), domain.FilterSelection{}, domain.SortNone)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tinta Acrílica Fosca", "Esmalte Sintético", "Rolo de Lã"}, names(items))
		assert.Equal(t, []string{"Esmalte", "Pintura", "Tinta Líquida"}, facets.Categories)

		items, facets, err = s.Browse(t.Context(),
			domain.FilterSelection{Query: "rolo"}, domain.SortNone)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rolo de Lã"}, names(items))
		assert.Equal(t, []string{"Esmalte", "Pintura", "Tinta Líquida"}, facets.Categories)
		assert.Equal(t, map[string]int{"Esmalte": 0, "Pintura": 1, "Tinta Líquida": 0}, facets.CategoryCounts)

		src.AssertNumberOfCalls(t, "ListProducts", 1)
		src.AssertNumberOfCalls(t, "ListTools", 1)
	})

	t.Run("BrowseSorts", func(t *testing.T) {
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), nil, nil)

		items, _, err := s.Browse(t.Context(), domain.FilterSelection{}, domain.SortPriceAsc)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rolo de Lã", "Esmalte Sintético", "Tinta Acrílica Fosca"}, names(items))
	})

	t.Run("ServesStaleSnapshotOnFailure", func(t *testing.T) {
		src := &MockCatalogSource{}
		src.On("ListProducts", mock.Anything).Return(sourceProducts(), nil).Once()
		src.On("ListProducts", mock.Anything).Return(nil, errors.New("upstream down"))
		src.On("ListTools", mock.Anything).Return(sourceTools(), nil)

		cfg := testConfig()
		cfg.CatalogTTL = time.Nanosecond
		s := service.New(cfg, newMapSlot(), src, nil, nil)

		first, err := s.Catalog(t.Context())
		require.NoError(t, err)
		time.Sleep(time.Millisecond)

		second, err := s.Catalog(t.Context())
		require.NoError(t, err)
		assert.Equal(t, first, second)
		src.AssertNumberOfCalls(t, "ListProducts", 2)
	})

	t.Run("FailsWithoutSnapshot", func(t *testing.T) {
		src := &MockCatalogSource{}
		src.On("ListProducts", mock.Anything).Return(nil, errors.New("upstream down"))

		s := service.New(testConfig(), newMapSlot(), src, nil, nil)

		_, _, err := s.Browse(t.Context(), domain.FilterSelection{}, domain.SortNone)
		require.Error(t, err)
		src.AssertNotCalled(t, "ListTools", mock.Anything)
	})
}

func TestServiceCart(t *testing.T) {
	t.Run("AddResolvesCatalogItem", func(t *testing.T) {
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), nil, nil)

		entries, err := s.AddToCart(t.Context(), "", domain.KindTool, 1, 2)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Rolo de Lã", entries[0].DisplayName())
		assert.Equal(t, 2, entries[0].Quantity)
	})

	t.Run("AddUnknownItem", func(t *testing.T) {
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), nil, nil)

		_, err := s.AddToCart(t.Context(), "", domain.KindTool, 2, 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CartsAreIsolated", func(t *testing.T) {
		slot := newMapSlot()
		s := service.New(testConfig(), slot, newCatalogSource(), nil, nil)

		_, err := s.AddToCart(t.Context(), "alice", domain.KindProduct, 2, 1)
		require.NoError(t, err)

		other, err := s.CartEntries(t.Context(), "bob")
		require.NoError(t, err)
		assert.Empty(t, other)

		_, ok := slot.value(domain.DefaultCartKey + ":alice")
		assert.True(t, ok)
	})

	t.Run("RejectsInvalidCartID", func(t *testing.T) {
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), nil, nil)

		_, err := s.CartEntries(t.Context(), "../etc")
		require.ErrorIs(t, err, domain.ErrInvalidCartID)

		_, err = s.CartEntries(t.Context(), strings.Repeat("a", 65))
		require.ErrorIs(t, err, domain.ErrInvalidCartID)
	})

	t.Run("UpdateRemoveClear", func(t *testing.T) {
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), nil, nil)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, "c1", domain.KindProduct, 1, 1)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, "c1", domain.KindTool, 1, 1)
		require.NoError(t, err)

		entries, err := s.UpdateCartQuantity(ctx, "c1", domain.KindProduct, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, entries[0].Quantity)

		entries, err = s.RemoveFromCart(ctx, "c1", domain.KindTool, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		require.NoError(t, s.ClearCart(ctx, "c1"))
		entries, err = s.CartEntries(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("LeastRecentlyUsedCartIsEvicted", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxCarts = 2
		s := service.New(cfg, newMapSlot(), newCatalogSource(), nil, nil)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, "alice", domain.KindProduct, 2, 3)
		require.NoError(t, err)
		alice, err := s.Cart(ctx, "alice")
		require.NoError(t, err)

		for _, id := range []string{"bob", "carol"} {
			time.Sleep(time.Millisecond)
			_, err := s.Cart(ctx, id)
			require.NoError(t, err)
		}

		again, err := s.Cart(ctx, "alice")
		require.NoError(t, err)
		assert.NotSame(t, alice, again)

		entries := again.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, 3, entries[0].Quantity)
	})

	t.Run("RecentlyUsedCartIsKept", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxCarts = 2
		s := service.New(cfg, newMapSlot(), newCatalogSource(), nil, nil)
		ctx := t.Context()

		alice, err := s.Cart(ctx, "alice")
		require.NoError(t, err)
		_, err = s.Cart(ctx, "bob")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		_, err = s.Cart(ctx, "alice")
		require.NoError(t, err)
		_, err = s.Cart(ctx, "carol")
		require.NoError(t, err)

		again, err := s.Cart(ctx, "alice")
		require.NoError(t, err)
		assert.Same(t, alice, again)
	})

	t.Run("IdleCartIsEvicted", func(t *testing.T) {
		cfg := testConfig()
		cfg.CartIdleTTL = 10 * time.Millisecond
		s := service.New(cfg, newMapSlot(), newCatalogSource(), nil, nil)
		ctx := t.Context()

		_, err := s.AddToCart(ctx, "alice", domain.KindTool, 1, 2)
		require.NoError(t, err)
		alice, err := s.Cart(ctx, "alice")
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		_, err = s.Cart(ctx, "bob")
		require.NoError(t, err)

		again, err := s.Cart(ctx, "alice")
		require.NoError(t, err)
		assert.NotSame(t, alice, again)
		require.Len(t, again.Entries(), 1)
		assert.Equal(t, 2, again.Entries()[0].Quantity)
	})

	t.Run("HydratesFromSlot", func(t *testing.T) {
		slot := newMapSlot()
		first := service.New(testConfig(), slot, newCatalogSource(), nil, nil)
		_, err := first.AddToCart(t.Context(), "", domain.KindProduct, 2, 3)
		require.NoError(t, err)

		second := service.New(testConfig(), slot, newCatalogSource(), nil, nil)
		entries, err := second.CartEntries(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 3, entries[0].Quantity)
	})
}

func TestServiceCheckout(t *testing.T) {
	t.Run("EmptyCart", func(t *testing.T) {
		producer := &MockCheckoutProducer{}
		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), producer, nil)

		_, err := s.Checkout(t.Context(), "c1")
		require.ErrorIs(t, err, domain.ErrEmptyCart)
		producer.AssertNotCalled(t, "ProduceCheckout", mock.Anything, mock.Anything)
	})

	t.Run("PublishesEvent", func(t *testing.T) {
		producer := &MockCheckoutProducer{}
		producer.On("ProduceCheckout", mock.Anything,
			mock.MatchedBy(func(evt domain.CheckoutEvent) bool {
				return evt.CartKey == domain.DefaultCartKey+":c1" &&
					evt.TotalItems == 2 && len(evt.Lines) == 1
			}),
		).Return(nil).Once()

		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), producer, nil)
		_, err := s.AddToCart(t.Context(), "c1", domain.KindProduct, 2, 2)
		require.NoError(t, err)

		co, err := s.Checkout(t.Context(), "c1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(co.URL, "https://wa.me/5511999998888?text="))
		assert.Contains(t, co.Message, "Esmalte Sintético (Produto)")
		assert.Contains(t, co.Message, "Total: R$ 179,00")
		assert.NotEmpty(t, co.Event.ID)
		assert.Equal(t, "179", co.Event.TotalPrice.String())
		producer.AssertExpectations(t)
	})

	t.Run("BrokerFailureDoesNotFailCheckout", func(t *testing.T) {
		producer := &MockCheckoutProducer{}
		producer.On("ProduceCheckout", mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable"))

		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), producer, nil)
		_, err := s.AddToCart(t.Context(), "", domain.KindTool, 1, 1)
		require.NoError(t, err)

		co, err := s.Checkout(t.Context(), "")
		require.NoError(t, err)
		assert.NotEmpty(t, co.URL)

		entries, err := s.CartEntries(t.Context(), "")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("CloseClosesProducer", func(t *testing.T) {
		producer := &MockCheckoutProducer{}
		producer.On("Close").Return().Once()

		s := service.New(testConfig(), newMapSlot(), newCatalogSource(), producer, nil)
		s.Close()

		producer.AssertExpectations(t)
	})

	t.Run("RequiresSlotAndCatalog", func(t *testing.T) {
		assert.Panics(t, func() {
			service.New(testConfig(), nil, newCatalogSource(), nil, nil)
		})
	})
}
