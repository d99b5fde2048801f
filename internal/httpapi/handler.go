// Package httpapi — HTTP API хоста: каталог, корзина, объявления и оформление заказа.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/service/workspace"
)

const maxBodyBytes = 1 << 20

// Handler обслуживает /api/v1.
type Handler struct {
	registry *workspace.Registry
	catalog  domain.BookCatalog
	logger   *log.Entry
}

// NewHandler создаёт HTTP-обработчик.
func NewHandler(registry *workspace.Registry, catalog domain.BookCatalog, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{registry: registry, catalog: catalog, logger: logger}
}

// Routes собирает роутер.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", h.listBooks)
		r.Get("/books/{id}", h.getBook)

		r.Group(func(r chi.Router) {
			r.Use(requireCartID)

			r.Get("/cart", h.getCart)
			r.Delete("/cart", h.clearCart)
			r.Post("/cart/items", h.addCartItem)
			r.Put("/cart/items/{lineId}", h.setCartItemQuantity)
			r.Delete("/cart/items/{lineId}", h.removeCartItem)

			r.Get("/listings", h.listListings)
			r.Post("/listings", h.createListing)
			r.Get("/listings/{listingId}", h.getListing)
			r.Delete("/listings/{listingId}", h.deleteListing)

			r.Post("/checkout", h.openCheckout)
			r.Get("/checkout/{id}", h.getCheckout)
			r.Delete("/checkout/{id}", h.discardCheckout)
			r.Put("/checkout/{id}/buyer", h.setBuyer)
			r.Put("/checkout/{id}/payment", h.setPaymentMethod)
			r.Delete("/checkout/{id}/items/{catalogId}", h.removeCheckoutItem)
			r.Post("/checkout/{id}/submit", h.submitCheckout)
		})
	})
	return r
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("catalog list failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type addItemRequest struct {
	CatalogID string `json:"catalogId"`
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

type lineResponse struct {
	Line domain.LineItem    `json:"line"`
	Cart workspace.CartView `json:"cart"`
}

// resolveItem находит позицию в каталоге или среди объявлений покупателя.
func (h *Handler) resolveItem(ctx context.Context, ws *workspace.Workspace, catalogID, listingID string) (domain.CatalogItem, error) {
	if listingID != "" {
		listing, err := ws.Listing(listingID)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		return listing.AsCatalogItem(), nil
	}
	return h.catalog.GetByID(ctx, catalogID)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Get(cartIDFrom(r.Context())).Cart())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.registry.Get(cartIDFrom(r.Context())).ClearCart()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if (req.CatalogID == "") == (req.ListingID == "") {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "exactly one of catalogId or listingId is required", nil)
		return
	}
	if !quantityInRange(w, req.Quantity) {
		return
	}

	ws := h.registry.Get(cartIDFrom(r.Context()))
	item, err := h.resolveItem(r.Context(), ws, req.CatalogID, req.ListingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	line := ws.AddToCart(item, req.Quantity)
	writeJSON(w, http.StatusCreated, lineResponse{Line: line, Cart: ws.Cart()})
}

// quantityInRange отклоняет количество больше domain.MaxLineQuantity.
func quantityInRange(w http.ResponseWriter, qty int) bool {
	if qty > domain.MaxLineQuantity {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "quantity is too large",
			map[string]interface{}{"max": domain.MaxLineQuantity})
		return false
	}
	return true
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) setCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "quantity is required", nil)
		return
	}
	if !quantityInRange(w, *req.Quantity) {
		return
	}

	view, err := h.registry.Get(cartIDFrom(r.Context())).SetQuantity(chi.URLParam(r, "lineId"), *req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	view := h.registry.Get(cartIDFrom(r.Context())).RemoveLine(chi.URLParam(r, "lineId"))
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Get(cartIDFrom(r.Context())).Listings())
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	var input domain.ListingInput
	if !decodeJSON(w, r, &input, false) {
		return
	}

	item, err := h.registry.Get(cartIDFrom(r.Context())).AddListing(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/listings/"+item.ListingID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	item, err := h.registry.Get(cartIDFrom(r.Context())).Listing(chi.URLParam(r, "listingId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Get(cartIDFrom(r.Context())).RemoveListing(chi.URLParam(r, "listingId")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
