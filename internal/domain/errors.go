package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service matches exactly one of these with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrGatewayUnavailable     = errors.New("payment service is currently unavailable")
	ErrGatewayError           = errors.New("payment gateway error")
	ErrInvalidSignature       = errors.New("invalid payment signature")
	ErrPersistence            = errors.New("persistence failure")
	ErrReconciliationRequired = errors.New("payment captured but order reconciliation failed")
)

var (
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrVariantNotFound  = fmt.Errorf("variant %w", ErrNotFound)
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrWishlistNotFound = fmt.Errorf("wishlist %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", ErrNotFound)

	ErrInvalidQuantity         = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	ErrInvalidRole             = fmt.Errorf("%w: invalid role", ErrInvalidArgument)
	ErrAlreadyInWishlist       = fmt.Errorf("%w: product already in wishlist", ErrInvalidArgument)
	ErrDuplicateSlug           = fmt.Errorf("%w: product with this slug already exists", ErrInvalidArgument)
	ErrDuplicateSKU            = fmt.Errorf("%w: variant with this sku already exists", ErrInvalidArgument)
	ErrIllegalTransition       = fmt.Errorf("%w: illegal order status transition", ErrInvalidArgument)
	ErrPaymentAlreadyProcessed = fmt.Errorf("%w: payment already processed", ErrInvalidArgument)
	ErrPaymentExpired          = fmt.Errorf("%w: payment callback expired", ErrInvalidArgument)
	ErrOrderCreationFailed     = errors.New("failed to create order")
)

// InsufficientStockError reports how many units are actually available.
type InsufficientStockError struct {
	ProductID string
	VariantID string
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for %s: only %d items available in stock", e.Name, e.Available)
	}
	return fmt.Sprintf("only %d items available in stock", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ReconciliationError is returned once money may have moved but the order could not be recorded.
// CaseID points at the durable record left for manual follow-up.
type ReconciliationError struct {
	CaseID         string
	GatewayOrderID string
	Reason         string
	Err            error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s (reference %s): %s", ErrReconciliationRequired, e.CaseID, e.Reason)
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliationRequired
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Persistence wraps a store driver error so callers can match ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
