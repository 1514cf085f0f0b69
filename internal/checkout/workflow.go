// Package checkout turns carts and caller-supplied items into orders.
//
// Both entry protocols commit through the same unit of work: the order insert, a floor-checked
// stock decrement per line and the outbox event land together or not at all.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type Workflow interface {
	Mode() domain.CheckoutMode
	Complete(ctx context.Context, userID string, req *CompleteRequest) (*Result, error)
}

type CompleteRequest struct {
	ShippingAddress domain.Address `json:"shipping_address"`

	// Direct orders only.
	Items       []domain.OrderItem `json:"items,omitempty"`
	TotalAmount *float64           `json:"total_amount,omitempty"`

	// Gateway confirmations only.
	Callback *domain.GatewayCallback `json:"-"`
}

type Result struct {
	Order     *domain.Order `json:"order"`
	PaymentID string        `json:"payment_id,omitempty"`
}

// StartResult is what the payment UI needs to open the gateway checkout.
type StartResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CacheInvalidator interface {
	InvalidateCache(userID string)
}

type Recorder interface {
	CheckoutFinished(mode domain.CheckoutMode, outcome string)
	ReconciliationRecorded(reason string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutFinished(domain.CheckoutMode, string) {}
func (nopRecorder) ReconciliationRecorded(string)                {}

type Options struct {
	CallbackWindow time.Duration
	Recorder       Recorder
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CallbackWindow <= 0 {
		o.CallbackWindow = 15 * time.Minute
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrReconciliationRequired):
		return "reconciliation"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrGatewayUnavailable), errors.Is(err, domain.ErrGatewayError):
		return "gateway_error"
	default:
		return "error"
	}
}
