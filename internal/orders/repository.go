package orders

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Repository interface {
	// Create fails with domain.ErrPaymentAlreadyProcessed when an order already exists for the
	// same gateway order id.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, page domain.PageRequest) ([]domain.Order, int64, error)
	List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error)
	// UpdateFulfillment changes status only if it is still from; a lost race is domain.ErrIllegalTransition.
	UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, tracking *domain.Tracking) error
	UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error
}
