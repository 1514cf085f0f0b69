package ledger

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// Repository is the payment ledger: gateway intents and the reconciliation cases raised against them.
type Repository interface {
	CreateIntent(ctx context.Context, intent *domain.PaymentIntent) error
	// GetIntent returns domain.ErrPaymentNotFound for an unknown gateway order id.
	GetIntent(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error)
	// MarkCaptured moves a CREATED intent to CAPTURED. Any other state yields domain.ErrPaymentAlreadyProcessed.
	MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID, orderID string) error
	// RecordReconciliation stores the case and flags its intent.
	RecordReconciliation(ctx context.Context, c *domain.ReconciliationCase) error
	ListOpenReconciliations(ctx context.Context, page domain.PageRequest) ([]domain.ReconciliationCase, int64, error)
	ResolveReconciliation(ctx context.Context, id string) error
	// ExpireStaleIntents marks CREATED intents older than before as EXPIRED.
	ExpireStaleIntents(ctx context.Context, before time.Time) (int64, error)
}
