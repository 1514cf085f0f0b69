package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// Razorpay talks to the orders API. A zero key id or secret leaves it disabled.
type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*GatewayOrder]
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// errRejected marks 4xx answers; they say nothing about gateway health.
var errRejected = errors.New("request rejected by gateway")

func NewRazorpay(cfg config.RazorpayConfig) *Razorpay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &Razorpay{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
	r.breaker = gobreaker.NewCircuitBreaker[*GatewayOrder](gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	if !r.configured() {
		slog.Warn("razorpay credentials not found, payment functionality disabled")
	}
	return r
}

func (r *Razorpay) configured() bool {
	return r.keyID != "" && r.keySecret != ""
}

func (r *Razorpay) Status() Status {
	if !r.configured() {
		return StatusDisabled
	}
	if r.breaker.State() != gobreaker.StateClosed {
		return StatusDegraded
	}
	return StatusReady
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

func (r *Razorpay) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	if !r.configured() {
		return nil, domain.ErrGatewayUnavailable
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if req.Currency == "" {
		req.Currency = domain.DefaultCurrency
	}

	order, err := r.breaker.Execute(func() (*GatewayOrder, error) {
		return r.createOrder(ctx, req)
	})
	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: circuit open", domain.ErrGatewayError)
	case errors.Is(err, domain.ErrGatewayError):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayError, err)
	}
}

func (r *Razorpay) createOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(r.keyID, r.keySecret)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.ErrorContext(ctx, "razorpay create order failed", "status", resp.StatusCode, "body", string(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w: status %d", domain.ErrGatewayError, errRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayError, resp.StatusCode)
	}

	var out razorpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: response without order id", domain.ErrGatewayError)
	}
	return &GatewayOrder{
		ID:          out.ID,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
		Status:      out.Status,
	}, nil
}
