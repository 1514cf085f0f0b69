package outbox

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Repository interface {
	AddEvent(ctx context.Context, event *domain.OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}
