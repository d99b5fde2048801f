package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/bookcart/internal/checkout"
	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// openCheckoutRequest: пустое тело или lineIds оформляют корзину,
// catalogId/listingId оформляют одну позицию без изменения корзины.
type openCheckoutRequest struct {
	LineIDs   []string `json:"lineIds"`
	CatalogID string   `json:"catalogId"`
	ListingID string   `json:"listingId"`
	Quantity  int      `json:"quantity"`
}

func (h *Handler) openCheckout(w http.ResponseWriter, r *http.Request) {
	var req openCheckoutRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	cartID := cartIDFrom(r.Context())
	var session *checkout.Session
	if req.CatalogID != "" || req.ListingID != "" {
		if !quantityInRange(w, req.Quantity) {
			return
		}
		item, err := h.resolveItem(r.Context(), h.registry.Get(cartID), req.CatalogID, req.ListingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		session = h.registry.OpenBuyNow(cartID, item, req.Quantity)
	} else {
		var err error
		session, err = h.registry.OpenCheckout(cartID, req.LineIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	w.Header().Set("Location", "/api/v1/checkout/"+session.ID())
	writeJSON(w, http.StatusCreated, session.View())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, err := h.registry.Session(cartIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) discardCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DiscardSession(cartIDFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setBuyer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var buyer domain.BuyerInfo
	if !decodeJSON(w, r, &buyer, false) {
		return
	}
	if err := s.SetBuyer(buyer); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type paymentRequest struct {
	Method domain.PaymentMethod `json:"method"`
}

func (h *Handler) setPaymentMethod(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := s.SetPaymentMethod(req.Method); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) removeCheckoutItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RemoveItem(chi.URLParam(r, "catalogId")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// submitCheckout не прерывает оплату при разрыве соединения клиента:
// поздний успех всё равно очищает корзину. Длительность ограничена таймаутом сессии.
func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	confirmation, err := s.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmation)
}
