package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamProduct = `{
	"id": 42,
	"codigo": "SV-1820",
	"descricao": "Tinta Acrílica Premium",
	"familia_tintas": "Tinta Líquida",
	"linha_produtos_tintas": "Suvinil Premium",
	"conteudo_embalagem": "18L",
	"cor_comercial_tinta": "Branco Neve",
	"preco": 389.9,
	"quantidade_por_fardo": 2,
	"photo": {"type": "Buffer", "data": [104, 105]},
	"photo_url": "https://cdn.example.com/42.png",
	"acabamento": "Fosco",
	"rendimento_m2": 380,
	"uso_interno": true,
	"observacao": null,
	"dimensoes": {"altura": 40}
}`

func TestProductJSON(t *testing.T) {
	t.Run("DecodesKnownFields", func(t *testing.T) {
		var p domain.Product
		require.NoError(t, json.Unmarshal([]byte(upstreamProduct), &p))

		assert.Equal(t, int64(42), p.ID)
		assert.Equal(t, "SV-1820", p.SKU)
		assert.Equal(t, "Tinta Líquida", p.Category)
		assert.Equal(t, "18L", p.PackageSize)
		assert.Equal(t, "Branco Neve", p.Color)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("389.9")))
		assert.Equal(t, "Suvinil Premium", p.Line)
		assert.Equal(t, 2, p.BundleQuantity)
		assert.Equal(t, domain.Photo("aGk="), p.Photo)
		assert.Equal(t, "https://cdn.example.com/42.png", p.PhotoURL)
	})

	t.Run("KeepsScalarExtrasAsAttributes", func(t *testing.T) {
		var p domain.Product
		require.NoError(t, json.Unmarshal([]byte(upstreamProduct), &p))

		assert.Equal(t, map[string]string{
			"acabamento":    "Fosco",
			"rendimento_m2": "380",
			"uso_interno":   "true",
		}, p.Attributes)
	})

	t.Run("RoundTripKeepsAttributes", func(t *testing.T) {
		var p domain.Product
		require.NoError(t, json.Unmarshal([]byte(upstreamProduct), &p))

		b, err := json.Marshal(p)
		require.NoError(t, err)

		var back domain.Product
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, p.Attributes, back.Attributes)
		assert.Equal(t, p.Description, back.Description)
		assert.Equal(t, p.Line, back.Line)
		assert.Equal(t, p.Photo, back.Photo)
		assert.True(t, p.Price.Equal(back.Price))
	})

	t.Run("AttributesDoNotShadowFields", func(t *testing.T) {
		p := domain.Product{
			ID:          1,
			Description: "Massa Corrida",
			Attributes:  map[string]string{"descricao": "hijack", "brilho": "baixo"},
		}
		b, err := json.Marshal(p)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(b, &raw))
		assert.Equal(t, "Massa Corrida", raw["descricao"])
		assert.Equal(t, "baixo", raw["brilho"])
	})

	t.Run("PhotoAsString", func(t *testing.T) {
		var p domain.Product
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"photo":"aGk="}`), &p))
		assert.Equal(t, domain.Photo("aGk="), p.Photo)
		assert.Equal(t, "data:image/jpeg;base64,aGk=", p.ImageSource())
	})

	t.Run("ImageSourceFallsBackToURL", func(t *testing.T) {
		p := domain.Product{PhotoURL: "https://cdn.example.com/1.png"}
		assert.Equal(t, "https://cdn.example.com/1.png", p.ImageSource())
		assert.Empty(t, domain.Product{}.ImageSource())
	})

	t.Run("InvalidPhotoBuffer", func(t *testing.T) {
		var p domain.Product
		err := json.Unmarshal([]byte(`{"id":1,"photo":{"type":"Buffer","data":[300]}}`), &p)
		assert.Error(t, err)
	})

	t.Run("MalformedInput", func(t *testing.T) {
		var p domain.Product
		assert.Error(t, json.Unmarshal([]byte(`{"id":"x"}`), &p))
	})
}
