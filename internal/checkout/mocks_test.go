package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
)

const testSecret = "gateway_secret"

// fakeGateway implements payment.Gateway with a local signing secret.
type fakeGateway struct {
	mu       sync.Mutex
	status   payment.Status
	err      error
	requests []payment.CreateOrderRequest
	seq      int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{status: payment.StatusReady}
}

func (g *fakeGateway) Status() payment.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.CreateOrderRequest) (*payment.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	g.requests = append(g.requests, req)
	return &payment.GatewayOrder{
		ID:          fmt.Sprintf("order_test%d", g.seq),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(testSecret, orderID, paymentID, signature)
}

func (g *fakeGateway) lastRequest() payment.CreateOrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func signedCallback(orderID, paymentID string) *domain.GatewayCallback {
	return &domain.GatewayCallback{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Signature:        payment.ComputeSignature(testSecret, orderID, paymentID),
	}
}

type fakeRecorder struct {
	mu              sync.Mutex
	outcomes        map[string]int
	reconciliations map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: map[string]int{}, reconciliations: map[string]int{}}
}

func (r *fakeRecorder) CheckoutFinished(mode domain.CheckoutMode, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[string(mode)+":"+outcome]++
}

func (r *fakeRecorder) ReconciliationRecorded(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciliations[reason]++
}

func (r *fakeRecorder) outcome(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[key]
}

func (r *fakeRecorder) reconciliation(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconciliations[reason]
}

type spyInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (s *spyInvalidator) InvalidateCache(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userID)
}

func (s *spyInvalidator) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...)
}
