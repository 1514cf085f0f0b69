package domain

import "time"

type IntentStatus string

const (
	IntentCreated                IntentStatus = "CREATED"
	IntentCaptured               IntentStatus = "CAPTURED"
	IntentExpired                IntentStatus = "EXPIRED"
	IntentReconciliationRequired IntentStatus = "RECONCILIATION_REQUIRED"
)

func (s IntentStatus) IsTerminal() bool {
	return s != IntentCreated
}

// PaymentIntent is the local record of a gateway order waiting for its callback.
type PaymentIntent struct {
	GatewayOrderID   string
	UserID           string
	CartID           string
	Receipt          string
	AmountMinor      int64
	Currency         string
	Status           IntentStatus
	GatewayPaymentID string
	OrderID          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Fresh reports whether a callback arriving at now is inside the validity window.
func (p *PaymentIntent) Fresh(now time.Time, window time.Duration) bool {
	return now.Before(p.CreatedAt.Add(window))
}

// GatewayCallback carries the fields the buyer's payment UI posts back after paying.
type GatewayCallback struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

// ReconciliationCase is a payment that needs a human: captured money without a matching order.
type ReconciliationCase struct {
	ID               string     `json:"id"`
	GatewayOrderID   string     `json:"gateway_order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	UserID           string     `json:"user_id"`
	AmountMinor      int64      `json:"amount_minor"`
	Currency         string     `json:"currency"`
	Reason           string     `json:"reason"`
	Detail           string     `json:"detail,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}
