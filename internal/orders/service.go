package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
)

type StatusUpdate struct {
	Status   domain.FulfillmentStatus `json:"status"`
	Tracking *domain.Tracking         `json:"tracking,omitempty"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetForUser hides orders of other users behind ErrOrderNotFound.
func (s *Service) GetForUser(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *Service) ListMine(ctx context.Context, userID string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	page = page.Normalize()
	orders, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		slog.ErrorContext(ctx, "repo list user orders error", "user_id", userID, "error", err)
		return nil, err
	}
	return domain.NewPage(orders, page, total), nil
}

func (s *Service) List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidArgument, filter.PaymentStatus)
	}
	if filter.FulfillmentStatus != "" && !filter.FulfillmentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown fulfillment status %q", domain.ErrInvalidArgument, filter.FulfillmentStatus)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: date range is inverted", domain.ErrInvalidArgument)
	}

	page = page.Normalize()
	orders, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		slog.ErrorContext(ctx, "repo list orders error", "error", err)
		return nil, err
	}
	return domain.NewPage(orders, page, total), nil
}

// UpdateStatus moves an order along the fulfillment lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, upd StatusUpdate) (*domain.Order, error) {
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown fulfillment status %q", domain.ErrInvalidArgument, upd.Status)
	}

	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.FulfillmentStatus.CanTransitionTo(upd.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, o.FulfillmentStatus, upd.Status)
	}

	if err := s.repo.UpdateFulfillment(ctx, orderID, o.FulfillmentStatus, upd.Status, upd.Tracking); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			slog.WarnContext(ctx, "order status changed concurrently", "order_id", orderID)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "order status updated", "order_id", orderID, "from", o.FulfillmentStatus, "to", upd.Status)
	return s.repo.FindByID(ctx, orderID)
}

// MarkRefunded records a refund issued outside the system. Only paid orders qualify.
func (s *Service) MarkRefunded(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.PaymentStatus.CanTransitionTo(domain.PaymentStatusRefunded) {
		return nil, fmt.Errorf("%w: payment %s cannot be refunded", domain.ErrIllegalTransition, o.PaymentStatus)
	}
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, o.PaymentStatus, domain.PaymentStatusRefunded); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order refunded", "order_id", orderID)
	return s.repo.FindByID(ctx, orderID)
}
