package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/wishlist"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	wishlists *wishlist.Service
	timeout   time.Duration
}

func NewWishlistHandler(svc *wishlist.Service, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{wishlists: svc, timeout: timeout}
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wl, err := h.wishlists.GetWishlist(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wl)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	wl, err := h.wishlists.Add(ctx, getUserIDFromContext(r.Context()), req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, wl)
}

func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ok, err := h.wishlists.Contains(ctx, getUserIDFromContext(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"inWishlist": ok})
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wl, err := h.wishlists.Remove(ctx, getUserIDFromContext(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wl)
}
