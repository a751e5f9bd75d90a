package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// A Product is a paint from the catalog.
	//
	// Upstream sends many more descriptive fields than the store uses,
	// they are kept as opaque display strings in Attributes.
	Product struct {
		ID          int64
		SKU         string
		Description string
		Category    string
		Line        string
		PackageSize string
		Color       string
		Price       decimal.Decimal

		// BundleQuantity is the number of units per bundle.
		BundleQuantity int
		Photo          Photo
		PhotoURL       string
		Attributes     map[string]string
	}

	Tool struct {
		ID            int64           `json:"id,omitempty"`
		Name          string          `json:"nome"`
		Price         decimal.Decimal `json:"preco"`
		Description   string          `json:"descricao"`
		TechnicalInfo string          `json:"info_tecnica"`
		Photo         Photo           `json:"photo,omitempty"`
		Brand         string          `json:"marca,omitempty"`
		Category      string          `json:"categoria,omitempty"`
	}
)

// A Photo is base64 image data.
//
// Upstream sends it either as a base64 string or as a serialized
// byte buffer {"type":"Buffer","data":[...]}.
type Photo string

var errPhotoBuffer = errors.New("photo: invalid byte buffer")

func (ph *Photo) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch {
	case text == "null":
		*ph = ""
		return nil
	case strings.HasPrefix(text, "{"):
		var buf struct {
			Data []int `json:"data"`
		}
		if err := json.Unmarshal(data, &buf); err != nil {
			return err
		}
		raw := make([]byte, len(buf.Data))
		for i, v := range buf.Data {
			if v < 0 || v > 255 {
				return errPhotoBuffer
			}
			raw[i] = byte(v)
		}
		*ph = Photo(base64.StdEncoding.EncodeToString(raw))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*ph = Photo(s)
	return nil
}

type productJSON struct {
	ID             int64           `json:"id"`
	SKU            string          `json:"codigo,omitempty"`
	Description    string          `json:"descricao"`
	Category       string          `json:"familia_tintas"`
	Line           string          `json:"linha_produtos_tintas,omitempty"`
	PackageSize    string          `json:"conteudo_embalagem"`
	Color          string          `json:"cor_comercial_tinta"`
	Price          decimal.Decimal `json:"preco"`
	BundleQuantity int             `json:"quantidade_por_fardo,omitempty"`
	Photo          Photo           `json:"photo,omitempty"`
	PhotoURL       string          `json:"photo_url,omitempty"`
}

var productFields = map[string]struct{}{
	"id":                    {},
	"codigo":                {},
	"descricao":             {},
	"familia_tintas":        {},
	"linha_produtos_tintas": {},
	"conteudo_embalagem":    {},
	"cor_comercial_tinta":   {},
	"preco":                 {},
	"quantidade_por_fardo":  {},
	"photo":                 {},
	"photo_url":             {},
}

// ImageSource returns a value usable as an img src, or "" when the
// product has no image.
func (p Product) ImageSource() string {
	if p.Photo != "" {
		return "data:image/jpeg;base64," + string(p.Photo)
	}
	return p.PhotoURL
}

func (p Product) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(productJSON{
		ID:          p.ID,
		SKU:         p.SKU,
		Description: p.Description,
		Category:    p.Category,
		Line:        p.Line,
		PackageSize: p.PackageSize,
		Color:       p.Color,
		Price:       p.Price,

		BundleQuantity: p.BundleQuantity,
		Photo:          p.Photo,
		PhotoURL:       p.PhotoURL,
	})
	if err != nil || len(p.Attributes) == 0 {
		return b, err
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil, err
	}
	for k, v := range p.Attributes {
		if _, known := productFields[k]; known {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		flat[k] = raw
	}
	return json.Marshal(flat)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var v productJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	*p = Product{
		ID:          v.ID,
		SKU:         v.SKU,
		Description: v.Description,
		Category:    v.Category,
		Line:        v.Line,
		PackageSize: v.PackageSize,
		Color:       v.Color,
		Price:       v.Price,

		BundleQuantity: v.BundleQuantity,
		Photo:          v.Photo,
		PhotoURL:       v.PhotoURL,
	}

	for k, raw := range flat {
		if _, known := productFields[k]; known {
			continue
		}
		s, ok := attributeString(raw)
		if !ok {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		p.Attributes[k] = s
	}
	return nil
}

// attributeString renders a scalar JSON value as display text.
// Null, objects and arrays are not display strings.
func attributeString(raw json.RawMessage) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", false
	}
	switch text[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return text, true
	}
}

func (p Product) clone() Product {
	p.Attributes = maps.Clone(p.Attributes)
	return p
}
