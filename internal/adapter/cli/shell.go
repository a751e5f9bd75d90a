// Package cli is the line-oriented storefront shell.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/service"
	"github.com/shopspring/decimal"
)

const prompt = "> "

var errUsage = errors.New("usage")

const help = `commands:
  list                      show the visible items
  search <text>             free-text search
  category|size|color <v>   toggle a filter value
  price <min> <max>|off     set or clear the price range
  sort <order>              none, name_asc, name_desc, price_asc, price_desc
  facets                    show the filter values
  reset                     clear every filter
  add <kind> <id> [qty]     add an item to the cart
  qty <kind> <id> <n>       set the quantity, 0 removes
  rm <kind> <id>            remove an item
  cart                      show the cart
  clear                     empty the cart
  checkout                  print the order message and link
  quit
`

// A Shell drives the catalog view and the cart from text commands.
type Shell struct {
	view      *service.CatalogView
	cart      *service.CartStore
	formatter service.CheckoutFormatter

	mu    sync.Mutex
	out   io.Writer
	items []domain.Item
}

func NewShell(
	cart *service.CartStore,
	formatter service.CheckoutFormatter,
	out io.Writer,
	opts ...service.CatalogViewOpt,
) *Shell {
	s := &Shell{cart: cart, formatter: formatter, out: out}
	opts = append(opts, service.OnChangeOpt(s.printItems))
	s.view = service.NewCatalogView(opts...)
	return s
}

// Load replaces the catalog snapshot.
func (s *Shell) Load(items []domain.Item) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.view.SetItems(items)
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.view.Close()

	sc := bufio.NewScanner(in)
	s.write(prompt)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(sc.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			if err := s.exec(ctx, line); err != nil {
				s.printf("error: %v\n", err)
			}
		}
		s.write(prompt)
	}
	return sc.Err()
}

func (s *Shell) exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		s.write(help)
	case "list":
		s.view.FlushQuery()
		s.printItems(s.view.Visible())
	case "search":
		s.view.SetQuery(arg)
	case "category":
		s.view.ToggleCategory(arg)
	case "size":
		s.view.ToggleSize(arg)
	case "color":
		s.view.ToggleColor(arg)
	case "price":
		return s.price(arg)
	case "sort":
		return s.sort(arg)
	case "facets":
		s.printFacets(s.view.Facets())
	case "reset":
		s.view.Reset()
	case "add":
		return s.add(ctx, arg)
	case "qty":
		return s.quantity(ctx, arg)
	case "rm":
		kind, id, err := parseRef(strings.Fields(arg))
		if err != nil {
			return err
		}
		s.cart.RemoveItem(ctx, id, kind)
		s.printCart()
	case "cart":
		s.printCart()
	case "clear":
		s.cart.Clear(ctx)
		s.printCart()
	case "checkout":
		msg, link, err := s.formatter.Handoff(s.cart.Entries())
		if err != nil {
			return err
		}
		s.printf("%s\n\n%s\n", msg, link)
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *Shell) price(arg string) error {
	if arg == "off" {
		s.view.ClearPriceRange()
		return nil
	}

	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return fmt.Errorf("%w: price <min> <max>|off", errUsage)
	}
	lo, err := decimal.NewFromString(fields[0])
	if err != nil {
		return err
	}
	hi, err := decimal.NewFromString(fields[1])
	if err != nil {
		return err
	}
	s.view.SetPriceRange(lo, hi)
	return nil
}

func (s *Shell) sort(arg string) error {
	order := domain.SortOrder(arg)
	switch order {
	case domain.SortNameAsc, domain.SortNameDesc,
		domain.SortPriceAsc, domain.SortPriceDesc:
	case "none":
		order = domain.SortNone
	default:
		return fmt.Errorf("%w: unknown sort %q", errUsage, arg)
	}
	s.view.SetSort(order)
	return nil
}

func (s *Shell) add(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 && len(fields) != 3 {
		return fmt.Errorf("%w: add <kind> <id> [qty]", errUsage)
	}
	kind, id, err := parseRef(fields[:2])
	if err != nil {
		return err
	}

	qty := 1
	if len(fields) == 3 {
		if qty, err = strconv.Atoi(fields[2]); err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, fields[2])
		}
	}

	item, err := s.find(kind, id)
	if err != nil {
		return err
	}
	if err := s.cart.AddItem(ctx, item, qty); err != nil {
		return err
	}
	s.printCart()
	return nil
}

func (s *Shell) quantity(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 3 {
		return fmt.Errorf("%w: qty <kind> <id> <n>", errUsage)
	}
	kind, id, err := parseRef(fields[:2])
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, fields[2])
	}
	if err := s.cart.UpdateQuantity(ctx, id, kind, qty); err != nil {
		return err
	}
	s.printCart()
	return nil
}

func (s *Shell) find(kind domain.Kind, id int64) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Kind == kind && it.ID() == id {
			return it, nil
		}
	}
	return domain.Item{}, fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
}

func parseRef(fields []string) (domain.Kind, int64, error) {
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w: <kind> <id>", errUsage)
	}
	kind, err := domain.ParseKind(fields[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid id %q", errUsage, fields[1])
	}
	return kind, id, nil
}

func (s *Shell) printItems(items []domain.Item) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d item(s)\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "  [%s %d] %s  %s\n",
			it.Kind, it.ID(), it.DisplayName(), priceLabel(it))
	}
	s.write(b.String())
}

func (s *Shell) printFacets(f domain.Facets) {
	var b strings.Builder
	fmt.Fprintf(&b, "categories: %s\n", withCounts(f.Categories, f.CategoryCounts))
	fmt.Fprintf(&b, "sizes: %s\n", withCounts(f.Sizes, f.SizeCounts))
	fmt.Fprintf(&b, "colors: %s\n", withCounts(f.Colors, f.ColorCounts))
	if r := f.PriceRange(); r != nil {
		fmt.Fprintf(&b, "price: %s - %s\n",
			service.FormatBRL(r.Min), service.FormatBRL(r.Max))
	}
	s.write(b.String())
}

// withCounts renders values as "a (2), b (0)".
func withCounts(values []string, counts map[string]int) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%s (%d)", v, counts[v])
	}
	return strings.Join(out, ", ")
}

func (s *Shell) printCart() {
	entries := s.cart.Entries()

	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("cart is empty\n")
		s.write(b.String())
		return
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "  %d x [%s %d] %s  %s\n",
			e.Quantity, e.Kind, e.ID(), e.DisplayName(), priceLabel(e.Item))
	}
	fmt.Fprintf(&b, "items: %d  total: %s\n",
		domain.CartTotalItems(entries),
		service.FormatBRL(domain.CartTotalPrice(entries)))
	s.write(b.String())
}

func priceLabel(it domain.Item) string {
	if !it.HasPrice() {
		return "Consultar vendedor"
	}
	return service.FormatBRL(it.Price())
}

func (s *Shell) printf(format string, args ...any) {
	s.write(fmt.Sprintf(format, args...))
}

// write serializes the prompt loop with debounced search output.
func (s *Shell) write(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, v)
}
