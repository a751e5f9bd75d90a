package service_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(it domain.Item, qty int) domain.CartEntry {
	return domain.CartEntry{Item: it, Quantity: qty}
}

func testFormatter(maxURL int) service.CheckoutFormatter {
	return service.NewCheckoutFormatter(service.CheckoutConfig{
		Phone:        "+55 (11) 99999-8888",
		Greeting:     service.DefaultCheckoutGreet,
		MaxURLLength: maxURL,
	})
}

func TestCheckoutFormatter(t *testing.T) {
	t.Run("FormatsLinesAndTotal", func(t *testing.T) {
		f := testFormatter(0)
		entries := []domain.CartEntry{
			entry(productItem(1, "289.90"), 2),
			entry(toolItem(5, "0"), 1),
		}

		want := "Olá! Gostaria de fazer o seguinte pedido:\n\n" +
			"1. Tinta Acrílica (Produto)\n" +
			"   Qtd: 2 x R$ 289,90 = R$ 579,80\n" +
			"2. Rolo de Lã (Ferramenta)\n" +
			"   Qtd: 1 x Consultar vendedor\n" +
			"\nTotal: R$ 579,80"
		assert.Equal(t, want, f.Format(entries))
	})

	t.Run("GroupsThousands", func(t *testing.T) {
		f := testFormatter(0)
		msg := f.Format([]domain.CartEntry{entry(productItem(1, "1234.56"), 1)})
		assert.Contains(t, msg, "Qtd: 1 x R$ 1.234,56 = R$ 1.234,56")
		assert.True(t, strings.HasSuffix(msg, "Total: R$ 1.234,56"))
	})

	t.Run("FormatBRL", func(t *testing.T) {
		assert.Equal(t, "R$ 0,00", service.FormatBRL(decimal.Zero))
		assert.Equal(t, "R$ 12,50", service.FormatBRL(decimal.RequireFromString("12.5")))
		assert.Equal(t, "R$ 1.234,57", service.FormatBRL(decimal.RequireFromString("1234.567")))
	})

	t.Run("FormatBRLLargeValuesAreExact", func(t *testing.T) {
		assert.Equal(t, "R$ 12.345.678.901.234,56",
			service.FormatBRL(decimal.RequireFromString("12345678901234.56")))
		assert.Equal(t, "R$ 90.071.992.547.409,93",
			service.FormatBRL(decimal.RequireFromString("90071992547409.93")))
		assert.Equal(t, "R$ 123.456.789.012.345.678.901,50",
			service.FormatBRL(decimal.RequireFromString("123456789012345678901.5")))
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := testFormatter(0)
		assert.Equal(t, "", f.Format(nil))

		_, _, err := f.Handoff(nil)
		require.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("HandoffLink", func(t *testing.T) {
		f := testFormatter(0)
		entries := []domain.CartEntry{entry(toolItem(2, "12"), 3)}

		msg, link, err := f.Handoff(entries)
		require.NoError(t, err)
		assert.Equal(t, f.Format(entries), msg)

		prefix := "https://wa.me/5511999998888?text="
		require.True(t, strings.HasPrefix(link, prefix))
		encoded := strings.TrimPrefix(link, prefix)
		assert.NotContains(t, encoded, "+")
		assert.NotContains(t, encoded, " ")
		assert.Contains(t, encoded, "%20")

		decoded, err := url.QueryUnescape(encoded)
		require.NoError(t, err)
		assert.Equal(t, msg, decoded)
	})

	t.Run("CustomDomain", func(t *testing.T) {
		f := service.NewCheckoutFormatter(service.CheckoutConfig{
			Domain: "api.whatsapp.com/", Phone: "551133334444",
		})
		_, link, err := f.Handoff([]domain.CartEntry{entry(toolItem(2, "12"), 1)})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link, "https://api.whatsapp.com/551133334444?text="))
	})

	t.Run("LongCartIsFolded", func(t *testing.T) {
		const maxURL = 600
		f := testFormatter(maxURL)

		var entries []domain.CartEntry
		for i := range 20 {
			entries = append(entries, entry(productItem(int64(i+1), "10"), 1))
		}

		msg, link, err := f.Handoff(entries)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(link), maxURL)
		assert.Contains(t, msg, "item(ns)")
		assert.True(t, strings.HasSuffix(msg, "Total: R$ 200,00"))
		assert.NotEqual(t, f.Format(entries), msg)
	})

	t.Run("GreetingIsDroppedBeforeGivingUp", func(t *testing.T) {
		const maxURL = 300
		greeting := strings.Repeat("x", 240)
		f := service.NewCheckoutFormatter(service.CheckoutConfig{
			Phone:        "5511999998888",
			Greeting:     greeting,
			MaxURLLength: maxURL,
		})
		entries := []domain.CartEntry{entry(productItem(1, "10"), 1)}

		msg, link, err := f.Handoff(entries)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(link), maxURL)
		assert.NotContains(t, msg, greeting)
		assert.True(t, strings.HasSuffix(msg, "Total: R$ 10,00"))
	})

	t.Run("LinkThatCannotFitIsAnError", func(t *testing.T) {
		f := service.NewCheckoutFormatter(service.CheckoutConfig{
			Phone:        "5511999998888",
			Greeting:     strings.Repeat("x", 240),
			MaxURLLength: 40,
		})

		msg, link, err := f.Handoff([]domain.CartEntry{entry(productItem(1, "10"), 1)})
		require.ErrorIs(t, err, domain.ErrCheckoutTooLong)
		assert.Empty(t, msg)
		assert.Empty(t, link)
	})

	t.Run("ShortCartIsNotFolded", func(t *testing.T) {
		f := testFormatter(0)
		entries := []domain.CartEntry{entry(productItem(1, "10"), 1)}

		msg, _, err := f.Handoff(entries)
		require.NoError(t, err)
		assert.NotContains(t, msg, "e mais")
	})
}
