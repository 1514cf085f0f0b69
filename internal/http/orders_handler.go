package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders  *orders.Service
	direct  checkout.Workflow
	timeout time.Duration
}

func NewOrdersHandler(svc *orders.Service, direct checkout.Workflow, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: svc, direct: direct, timeout: timeout}
}

// Create places an order from the submitted items without a gateway payment.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.CompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.direct.Complete(ctx, getUserIDFromContext(r.Context()), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res.Order)
}

func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.orders.ListMine(ctx, getUserIDFromContext(r.Context()), pageFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.GetForUser(ctx, getUserIDFromContext(r.Context()), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
