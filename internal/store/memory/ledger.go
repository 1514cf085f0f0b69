package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) CreateIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	defer s.lock(ctx)()
	if _, ok := s.intents[intent.GatewayOrderID]; ok {
		return fmt.Errorf("%w: intent %s already exists", domain.ErrInvalidArgument, intent.GatewayOrderID)
	}
	in := *intent
	if in.Status == "" {
		in.Status = domain.IntentCreated
	}
	s.intents[in.GatewayOrderID] = in
	return nil
}

func (s *Store) GetIntent(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	defer s.lock(ctx)()
	in, ok := s.intents[gatewayOrderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &in, nil
}

func (s *Store) MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID, orderID string) error {
	defer s.lock(ctx)()
	in, ok := s.intents[gatewayOrderID]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if in.Status != domain.IntentCreated {
		return domain.ErrPaymentAlreadyProcessed
	}
	in.Status = domain.IntentCaptured
	in.GatewayPaymentID = gatewayPaymentID
	in.OrderID = orderID
	in.UpdatedAt = time.Now().UTC()
	s.intents[gatewayOrderID] = in
	return nil
}

func (s *Store) RecordReconciliation(ctx context.Context, c *domain.ReconciliationCase) error {
	defer s.lock(ctx)()
	s.cases[c.ID] = *c
	if in, ok := s.intents[c.GatewayOrderID]; ok && in.Status != domain.IntentCaptured {
		in.Status = domain.IntentReconciliationRequired
		in.GatewayPaymentID = c.GatewayPaymentID
		in.UpdatedAt = time.Now().UTC()
		s.intents[c.GatewayOrderID] = in
	}
	return nil
}

func (s *Store) ListOpenReconciliations(ctx context.Context, page domain.PageRequest) ([]domain.ReconciliationCase, int64, error) {
	defer s.lock(ctx)()
	open := []domain.ReconciliationCase{}
	for _, c := range s.cases {
		if c.ResolvedAt == nil {
			open = append(open, c)
		}
	}
	slices.SortFunc(open, func(a, b domain.ReconciliationCase) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return paginate(open, page), int64(len(open)), nil
}

func (s *Store) ResolveReconciliation(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	c, ok := s.cases[id]
	if !ok || c.ResolvedAt != nil {
		return fmt.Errorf("reconciliation case %w", domain.ErrNotFound)
	}
	now := time.Now().UTC()
	c.ResolvedAt = &now
	s.cases[id] = c
	return nil
}

func (s *Store) ExpireStaleIntents(ctx context.Context, before time.Time) (int64, error) {
	defer s.lock(ctx)()
	var n int64
	for id, in := range s.intents {
		if in.Status == domain.IntentCreated && in.CreatedAt.Before(before) {
			in.Status = domain.IntentExpired
			in.UpdatedAt = time.Now().UTC()
			s.intents[id] = in
			n++
		}
	}
	return n, nil
}
