package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
)

type PaymentHandler struct {
	gateway  payment.Gateway
	workflow *checkout.GatewayWorkflow
	timeout  time.Duration
}

func NewPaymentHandler(gw payment.Gateway, wf *checkout.GatewayWorkflow, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{gateway: gw, workflow: wf, timeout: timeout}
}

type VerifyPaymentRequestDTO struct {
	domain.GatewayCallback
	ShippingAddress domain.Address `json:"shipping_address"`
}

type VerifyPaymentResponseDTO struct {
	Message   string        `json:"message"`
	OrderID   string        `json:"order_id"`
	PaymentID string        `json:"payment_id"`
	Order     *domain.Order `json:"order"`
}

func (h *PaymentHandler) Key(w http.ResponseWriter, r *http.Request) {
	if h.gateway.Status() == payment.StatusDisabled {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", domain.ErrGatewayUnavailable.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"key": h.gateway.KeyID()})
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.workflow.Start(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	// The confirm must not be abandoned halfway because the buyer's connection dropped.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	var req VerifyPaymentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cb := req.GatewayCallback
	res, err := h.workflow.Complete(ctx, getUserIDFromContext(r.Context()), &checkout.CompleteRequest{
		ShippingAddress: req.ShippingAddress,
		Callback:        &cb,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, VerifyPaymentResponseDTO{
		Message:   "Payment verified and order created successfully",
		OrderID:   res.Order.ID,
		PaymentID: res.PaymentID,
		Order:     res.Order,
	})
}
