package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Status reports whether the gateway can take new orders.
type Status int

const (
	StatusDisabled Status = iota
	StatusReady
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusDegraded:
		return "degraded"
	default:
		return "disabled"
	}
}

type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

type Gateway interface {
	Status() Status
	// KeyID is the public key handed to the payment UI.
	KeyID() string
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// ComputeSignature returns the lower-hex HMAC-SHA256 of "orderID|paymentID".
func ComputeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
