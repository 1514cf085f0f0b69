package memory

import (
	"context"
	"slices"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) AddEvent(ctx context.Context, event *domain.OutboxEvent) error {
	defer s.lock(ctx)()
	e := *event
	e.Payload = slices.Clone(event.Payload)
	s.outbox = append(s.outbox, e)
	return nil
}

func (s *Store) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	defer s.lock(ctx)()
	out := []*domain.OutboxEvent{}
	for _, e := range s.outbox {
		if len(out) == limit {
			break
		}
		if e.ProcessedAt == nil {
			ev := e
			out = append(out, &ev)
		}
	}
	return out, nil
}

func (s *Store) MarkEventAsProcessed(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			now := time.Now().UTC()
			s.outbox[i].ProcessedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}
