package service

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultCheckoutDomain = "wa.me"
	DefaultCheckoutGreet  = "Olá! Gostaria de fazer o seguinte pedido:"
	DefaultMaxURLLength   = 4000

	askSeller = "Consultar vendedor"
)

type CheckoutConfig struct {
	Domain       string
	Phone        string
	Greeting     string
	MaxURLLength int
}

// A CheckoutFormatter renders a cart into the order message and the
// messaging deep link carrying it.
type CheckoutFormatter struct {
	domain   string
	phone    string
	greeting string
	maxURL   int
}

func NewCheckoutFormatter(cfg CheckoutConfig) CheckoutFormatter {
	f := CheckoutFormatter{
		domain:   strings.Trim(cfg.Domain, "/"),
		phone:    digitsOnly(cfg.Phone),
		greeting: cfg.Greeting,
		maxURL:   cfg.MaxURLLength,
	}
	if f.domain == "" {
		f.domain = DefaultCheckoutDomain
	}
	if f.maxURL <= 0 {
		f.maxURL = DefaultMaxURLLength
	}
	return f
}

// Format renders every entry. An empty cart renders as "".
func (f CheckoutFormatter) Format(entries []domain.CartEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return f.render(entries, len(entries), true)
}

// Handoff returns the message and the link to open. When the full message
// does not fit the URL limit, trailing lines are folded into a summary line
// and then the greeting is dropped; the total always covers the whole cart.
// A link that cannot fit at all is ErrCheckoutTooLong.
func (f CheckoutFormatter) Handoff(
	entries []domain.CartEntry,
) (msg string, link string, err error) {
	const op = "CheckoutFormatter.Handoff"

	if len(entries) == 0 {
		return "", "", fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	for _, greet := range []bool{true, false} {
		if !greet && f.greeting == "" {
			break
		}
		for shown := len(entries); shown >= 0; shown-- {
			msg = f.render(entries, shown, greet)
			link = f.link(msg)
			if len(link) <= f.maxURL {
				return msg, link, nil
			}
		}
	}
	return "", "", fmt.Errorf(
		"%s: %w: shortest link is %d bytes, limit %d",
		op, domain.ErrCheckoutTooLong, len(link), f.maxURL,
	)
}

func (f CheckoutFormatter) render(
	entries []domain.CartEntry, shown int, greet bool,
) string {
	p := message.NewPrinter(catalogLanguage)

	var b strings.Builder
	if greet && f.greeting != "" {
		b.WriteString(f.greeting)
		b.WriteString("\n\n")
	}

	for i, e := range entries[:shown] {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, e.DisplayName(), e.Kind.Label())
		if !e.HasPrice() {
			fmt.Fprintf(&b, "   Qtd: %d x %s\n", e.Quantity, askSeller)
			continue
		}
		fmt.Fprintf(&b, "   Qtd: %d x %s = %s\n",
			e.Quantity, formatBRL(p, e.Price()), formatBRL(p, e.Subtotal()))
	}

	if rest := len(entries) - shown; rest > 0 {
		fmt.Fprintf(&b, "... e mais %d item(ns)\n", rest)
	}

	fmt.Fprintf(&b, "\nTotal: %s", formatBRL(p, domain.CartTotalPrice(entries)))
	return b.String()
}

func (f CheckoutFormatter) link(msg string) string {
	return "https://" + f.domain + "/" + f.phone + "?text=" + encodeText(msg)
}

// encodeText escapes like encodeURIComponent, spaces become %20.
func encodeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// FormatBRL renders d as reais, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	return formatBRL(message.NewPrinter(catalogLanguage), d)
}

var maxExactInt = decimal.NewFromInt(math.MaxInt64)

func formatBRL(p *message.Printer, d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Neg()
	}

	whole, cents, _ := strings.Cut(d.StringFixed(2), ".")
	if d.LessThan(maxExactInt) {
		whole = p.Sprintf("%v", number.Decimal(d.IntPart()))
	} else {
		whole = groupThousands(whole)
	}
	return "R$ " + sign + whole + "," + cents
}

func groupThousands(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
