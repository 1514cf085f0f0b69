package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/ledger"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/users"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	orders  *orders.Service
	catalog *catalog.Service
	users   *users.Service
	ledger  ledger.Repository
	timeout time.Duration
}

func NewAdminHandler(o *orders.Service, c *catalog.Service, u *users.Service, l ledger.Repository, timeout time.Duration) *AdminHandler {
	return &AdminHandler{orders: o, catalog: c, users: u, ledger: l, timeout: timeout}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, err := orderFilterFromQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	page, err := h.orders.List(ctx, filter, pageFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Dates are accepted as RFC 3339 or YYYY-MM-DD; a bare end date covers that whole day.
func orderFilterFromQuery(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()
	f := domain.OrderFilter{
		PaymentStatus:     domain.PaymentStatus(q.Get("payment_status")),
		FulfillmentStatus: domain.FulfillmentStatus(q.Get("status")),
	}
	var err error
	if f.From, err = parseDate(q.Get("from"), false); err != nil {
		return f, err
	}
	if f.To, err = parseDate(q.Get("to"), true); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidArgument, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.Get(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req orders.StatusUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "order_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.MarkRefunded(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	lowStock, _ := strconv.ParseBool(q.Get("low_stock"))
	page, err := h.catalog.ListProducts(ctx, domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		LowStock: lowStock,
	}, pageFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in catalog.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.catalog.CreateProduct(ctx, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in catalog.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "product_id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in catalog.VariantInput
	if !decodeJSON(w, r, &in) {
		return
	}
	v, err := h.catalog.AddVariant(ctx, chi.URLParam(r, "product_id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, err := h.users.List(ctx, domain.UserFilter{
		Role:   domain.Role(q.Get("role")),
		Search: q.Get("search"),
	}, pageFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		Role domain.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.UpdateRole(ctx, chi.URLParam(r, "user_id"), req.Role)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := pageFromQuery(r)
	cases, total, err := h.ledger.ListOpenReconciliations(ctx, page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewPage(cases, page, total))
}

func (h *AdminHandler) ResolveReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.ledger.ResolveReconciliation(ctx, chi.URLParam(r, "case_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
