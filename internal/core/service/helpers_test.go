package service_test

import (
	"context"
	"sync"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mapSlot struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
}

func newMapSlot() *mapSlot {
	return &mapSlot{values: make(map[string]string)}
}

func (s *mapSlot) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *mapSlot) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.sets++
	return nil
}

func (s *mapSlot) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

type MockCartSlot struct {
	mock.Mock
}

func (m *MockCartSlot) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCartSlot) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockCatalogSource) ListTools(ctx context.Context) ([]domain.Tool, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.Tool)
	return ts, args.Error(1)
}

type MockCheckoutProducer struct {
	mock.Mock
}

func (m *MockCheckoutProducer) ProduceCheckout(
	ctx context.Context, evt domain.CheckoutEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockCheckoutProducer) Close() {
	m.Called()
}

func paint(id int64, desc, category, size, color, price string) domain.Product {
	return domain.Product{
		ID:             id,
		SKU:            "SKU-" + desc[:1],
		Description:    desc,
		Category:       category,
		Line:           "Linha Casa",
		PackageSize:    size,
		Color:          color,
		Price:          decimal.RequireFromString(price),
		BundleQuantity: 1,
	}
}

func tool(id int64, name, price string) domain.Tool {
	return domain.Tool{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: "Ferramenta " + name,
		Brand:       "Atlas",
		Category:    "Pintura",
	}
}

func productItem(id int64, price string) domain.Item {
	return domain.ProductItem(
		paint(id, "Tinta Acrílica", "Tinta Líquida", "18L", "Branco", price),
	)
}

func toolItem(id int64, price string) domain.Item {
	return domain.ToolItem(tool(id, "Rolo de Lã", price))
}

func ids(items []domain.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}
