package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) Create(ctx context.Context, order *domain.Order) error {
	defer s.lock(ctx)()
	if order.Payment != nil {
		for _, o := range s.orders {
			if o.Payment != nil && o.Payment.GatewayOrderID == order.Payment.GatewayOrderID {
				return domain.ErrPaymentAlreadyProcessed
			}
		}
	}
	o := *order
	o.Items = slices.Clone(order.Items)
	s.orders[o.ID] = o
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	defer s.lock(ctx)()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string, page domain.PageRequest) ([]domain.Order, int64, error) {
	defer s.lock(ctx)()
	return s.listOrders(func(o domain.Order) bool { return o.UserID == userID }, page)
}

func (s *Store) List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error) {
	defer s.lock(ctx)()
	return s.listOrders(func(o domain.Order) bool {
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			return false
		}
		if filter.FulfillmentStatus != "" && o.FulfillmentStatus != filter.FulfillmentStatus {
			return false
		}
		if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
			return false
		}
		if !filter.To.IsZero() && o.CreatedAt.After(filter.To) {
			return false
		}
		return true
	}, page)
}

func (s *Store) listOrders(match func(domain.Order) bool, page domain.PageRequest) ([]domain.Order, int64, error) {
	matched := []domain.Order{}
	for _, o := range s.orders {
		if match(o) {
			matched = append(matched, o)
		}
	}
	slices.SortFunc(matched, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Store) UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, tracking *domain.Tracking) error {
	defer s.lock(ctx)()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.FulfillmentStatus != from {
		return domain.ErrIllegalTransition
	}
	o.FulfillmentStatus = to
	if tracking != nil {
		t := *tracking
		o.Tracking = &t
	}
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	defer s.lock(ctx)()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.PaymentStatus != from {
		return domain.ErrIllegalTransition
	}
	o.PaymentStatus = to
	if o.Payment != nil {
		p := *o.Payment
		p.Status = to
		o.Payment = &p
	}
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return nil
}
