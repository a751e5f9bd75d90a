package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindTool    Kind = "tool"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProduct, KindTool:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Label is the customer facing name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindProduct:
		return "Produto"
	case KindTool:
		return "Ferramenta"
	default:
		return string(k)
	}
}

// An Item is a sellable entity, either a [Product] or a [Tool].
//
// Exactly one payload is set and it matches Kind.
type Item struct {
	Kind    Kind     `json:"kind"`
	Product *Product `json:"product,omitempty"`
	Tool    *Tool    `json:"tool,omitempty"`
}

func ProductItem(p Product) Item {
	return Item{Kind: KindProduct, Product: &p}
}

func ToolItem(t Tool) Item {
	return Item{Kind: KindTool, Tool: &t}
}

func (i Item) Validate() error {
	switch i.Kind {
	case KindProduct:
		if i.Product == nil || i.Tool != nil {
			return fmt.Errorf("%w: product payload mismatch", ErrInvalidItem)
		}
	case KindTool:
		if i.Tool == nil || i.Product != nil {
			return fmt.Errorf("%w: tool payload mismatch", ErrInvalidItem)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidItem, ErrUnknownKind, i.Kind)
	}
	return nil
}

func (i Item) ID() int64 {
	switch i.Kind {
	case KindProduct:
		if i.Product != nil {
			return i.Product.ID
		}
	case KindTool:
		if i.Tool != nil {
			return i.Tool.ID
		}
	}
	return 0
}

func (i Item) DisplayName() string {
	switch i.Kind {
	case KindProduct:
		if i.Product != nil {
			return i.Product.Description
		}
	case KindTool:
		if i.Tool != nil {
			return i.Tool.Name
		}
	}
	return ""
}

// Price returns the advertised unit price, may be zero or negative.
func (i Item) Price() decimal.Decimal {
	switch i.Kind {
	case KindProduct:
		if i.Product != nil {
			return i.Product.Price
		}
	case KindTool:
		if i.Tool != nil {
			return i.Tool.Price
		}
	}
	return decimal.Zero
}

// HasPrice reports false for "price on request" items.
func (i Item) HasPrice() bool {
	return i.Price().IsPositive()
}

func (i Item) Category() string {
	switch i.Kind {
	case KindProduct:
		if i.Product != nil {
			return i.Product.Category
		}
	case KindTool:
		if i.Tool != nil {
			return i.Tool.Category
		}
	}
	return ""
}

// Size is the package size. Tools have none.
func (i Item) Size() string {
	if i.Kind == KindProduct && i.Product != nil {
		return i.Product.PackageSize
	}
	return ""
}

// Color is the commercial color. Tools have none.
func (i Item) Color() string {
	if i.Kind == KindProduct && i.Product != nil {
		return i.Product.Color
	}
	return ""
}

// SearchFields returns the texts the free-text query is matched against.
func (i Item) SearchFields() []string {
	switch i.Kind {
	case KindProduct:
		if i.Product != nil {
			p := i.Product
			return []string{p.Description, p.SKU, p.Line, p.Color}
		}
	case KindTool:
		if i.Tool != nil {
			t := i.Tool
			return []string{t.Name, t.Description, t.TechnicalInfo, t.Brand, t.Category}
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with i.
func (i Item) Clone() Item {
	out := Item{Kind: i.Kind}
	if i.Product != nil {
		p := i.Product.clone()
		out.Product = &p
	}
	if i.Tool != nil {
		t := *i.Tool
		out.Tool = &t
	}
	return out
}
