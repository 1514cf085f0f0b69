package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

// DirectWorkflow creates an order from caller-supplied items without a payment gateway.
// The order starts with payment pending.
type DirectWorkflow struct {
	commit *committer
	opts   Options
}

func NewDirectWorkflow(stores Stores, opts Options) *DirectWorkflow {
	return &DirectWorkflow{commit: newCommitter(stores), opts: opts.withDefaults()}
}

func (w *DirectWorkflow) Mode() domain.CheckoutMode {
	return domain.CheckoutDirect
}

func (w *DirectWorkflow) Complete(ctx context.Context, userID string, req *CompleteRequest) (*Result, error) {
	res, err := w.complete(ctx, userID, req)
	w.opts.Recorder.CheckoutFinished(w.Mode(), outcome(err))
	return res, err
}

func (w *DirectWorkflow) complete(ctx context.Context, userID string, req *CompleteRequest) (*Result, error) {
	if err := validateDirect(req); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, len(req.Items))
	copy(items, req.Items)
	order := domain.NewOrder(userID, domain.CheckoutDirect, items, req.ShippingAddress)

	if req.TotalAmount != nil && domain.ToMinorUnits(*req.TotalAmount) != domain.ToMinorUnits(order.TotalAmount) {
		return nil, fmt.Errorf("%w: total_amount %.2f does not match items total %.2f",
			domain.ErrInvalidArgument, *req.TotalAmount, order.TotalAmount)
	}

	if err := w.commit.commit(ctx, order, false); err != nil {
		slog.ErrorContext(ctx, "direct order creation failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderCreationFailed, err)
	}

	slog.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", userID, "mode", order.Mode, "total", order.TotalAmount)
	return &Result{Order: order}, nil
}

func validateDirect(req *CompleteRequest) error {
	if req == nil || len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", domain.ErrInvalidArgument)
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d has no product_id", domain.ErrInvalidArgument, i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d", domain.ErrInvalidQuantity, i)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: item %d has a negative price", domain.ErrInvalidArgument, i)
		}
	}
	if strings.TrimSpace(req.ShippingAddress.Line1) == "" || strings.TrimSpace(req.ShippingAddress.City) == "" {
		return fmt.Errorf("%w: shipping address needs line1 and city", domain.ErrInvalidArgument)
	}
	return nil
}
