package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/shopspring/decimal"
)

var errBadRequest = errors.New("bad request")

// GET v1/catalog?category=&size=&color=&min_price=&max_price=&q=&sort= (200 OK, 400 Bad request, 503)

type CatalogHandler struct {
	browser port.CatalogBrowser
	decoder *schema.Decoder
}

func RegisterCatalog(mux *http.ServeMux, browser port.CatalogBrowser) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	h := CatalogHandler{browser: browser, decoder: decoder}
	mux.HandleFunc("GET /v1/catalog", h.GetCatalog)
}

func (h CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetCatalog"
	log := slog.With("op", op)

	var q CatalogQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, "invalid query", http.StatusBadRequest)
		log.Warn("failed to decode query", "err", err)
		return
	}

	sel, order, err := q.toDomain()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, facets, err := h.browser.Browse(r.Context(), sel, order)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, catalogFromDomain(items, facets))
}

func (q CatalogQuery) toDomain() (domain.FilterSelection, domain.SortOrder, error) {
	sel := domain.FilterSelection{
		Categories: q.Categories,
		Sizes:      q.Sizes,
		Colors:     q.Colors,
		Query:      q.Query,
	}

	switch {
	case q.MinPrice == "" && q.MaxPrice == "":
	case q.MinPrice == "" || q.MaxPrice == "":
		return sel, "", fmt.Errorf("%w: min_price and max_price go together", errBadRequest)
	default:
		lo, err := decimal.NewFromString(q.MinPrice)
		if err != nil {
			return sel, "", fmt.Errorf("%w: invalid min_price", errBadRequest)
		}
		hi, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			return sel, "", fmt.Errorf("%w: invalid max_price", errBadRequest)
		}
		sel.Price = &domain.PriceRange{Min: lo, Max: hi}
	}

	order := domain.SortOrder(q.Sort)
	switch order {
	case domain.SortNone, domain.SortNameAsc, domain.SortNameDesc,
		domain.SortPriceAsc, domain.SortPriceDesc:
	default:
		return sel, "", fmt.Errorf("%w: unknown sort %q", errBadRequest, q.Sort)
	}

	return sel, order, nil
}

// GET v1/carts/{cartID} (200 OK)
// POST v1/carts/{cartID}/items JSON {"kind", "id", "quantity"} (200 OK, 400, 404)
// PUT v1/carts/{cartID}/items/{kind}/{id} JSON {"quantity"} (200 OK, 400)
// DELETE v1/carts/{cartID}/items/{kind}/{id} (200 OK)
// DELETE v1/carts/{cartID} (204 No content)
// POST v1/carts/{cartID}/checkout (200 OK, 409 Conflict on empty cart, 422 when the link cannot fit)

type CartHandler struct {
	carts    port.CartManager
	checkout port.CheckoutStarter
}

func RegisterCart(
	mux *http.ServeMux, carts port.CartManager, checkout port.CheckoutStarter,
) {
	h := CartHandler{carts: carts, checkout: checkout}
	mux.HandleFunc("GET /v1/carts/{cartID}", h.GetCart)
	mux.HandleFunc("DELETE /v1/carts/{cartID}", h.ClearCart)
	mux.HandleFunc("POST /v1/carts/{cartID}/items", h.AddItem)
	mux.HandleFunc("PUT /v1/carts/{cartID}/items/{kind}/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /v1/carts/{cartID}/items/{kind}/{id}", h.RemoveItem)
	mux.HandleFunc("POST /v1/carts/{cartID}/checkout", h.Checkout)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	entries, err := h.carts.CartEntries(r.Context(), r.PathValue("cartID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(entries))
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ClearCart"
	log := slog.With("op", op)

	if err := h.carts.ClearCart(r.Context(), r.PathValue("cartID")); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		writeError(w, log, err)
		return
	}

	entries, err := h.carts.AddToCart(
		r.Context(), r.PathValue("cartID"), kind, req.ID, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("item added", "kind", kind, "id", req.ID, "quantity", req.Quantity)
	writeJSON(w, log, http.StatusOK, cartFromDomain(entries))
}

func (h CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateItem"
	log := slog.With("op", op)

	kind, id, err := itemRef(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	entries, err := h.carts.UpdateCartQuantity(
		r.Context(), r.PathValue("cartID"), kind, id, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(entries))
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	kind, id, err := itemRef(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	entries, err := h.carts.RemoveFromCart(r.Context(), r.PathValue("cartID"), kind, id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromDomain(entries))
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	co, err := h.checkout.Checkout(r.Context(), r.PathValue("cartID"))
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("checkout link issued", "event", co.Event.ID, "items", co.Event.TotalItems)
	writeJSON(w, log, http.StatusOK, CheckoutResponse{Message: co.Message, URL: co.URL})
}

func itemRef(r *http.Request) (domain.Kind, int64, error) {
	kind, err := domain.ParseKind(r.PathValue("kind"))
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid item id", errBadRequest)
	}
	return kind, id, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidCartID),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCheckoutTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := statusOf(err)
	if code == http.StatusServiceUnavailable {
		log.Error("request failed", "err", err)
		http.Error(w, "service unavailable", code)
		return
	}
	log.Warn("request rejected", "err", err)
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
