package outbox

import (
	"context"
	"log/slog"
	"time"
)

type IntentExpirer interface {
	ExpireStaleIntents(ctx context.Context, before time.Time) (int64, error)
}

type Recorder interface {
	EventPublished(eventType string, err error)
	IntentsExpiredAdd(n int64)
}

type nopRecorder struct{}

func (nopRecorder) EventPublished(string, error) {}
func (nopRecorder) IntentsExpiredAdd(int64)      {}

// Poller drains the outbox to the publisher and, on a slower tick, expires payment intents
// whose callback window has passed.
type Poller struct {
	batch          int
	eventTick      time.Duration
	recoveryTick   time.Duration
	callbackWindow time.Duration
	repo           Repository
	publisher      Publisher
	intents        IntentExpirer
	recorder       Recorder
	now            func() time.Time
}

func NewPoller(repo Repository, pub Publisher, intents IntentExpirer, callbackWindow time.Duration, rec Recorder) *Poller {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Poller{
		batch:          100,
		eventTick:      time.Second,
		recoveryTick:   time.Minute,
		callbackWindow: callbackWindow,
		repo:           repo,
		publisher:      pub,
		intents:        intents,
		recorder:       rec,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (p *Poller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.expireStaleIntents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batch)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		err := p.publisher.Publish(ctx, event)
		p.recorder.EventPublished(event.EventType, err)
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish event", "event_id", event.ID, "error", err)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			slog.ErrorContext(ctx, "failed to mark event as processed", "event_id", event.ID, "error", err)
		}
	}
}

// An intent left CREATED past the window can no longer be confirmed.
func (p *Poller) expireStaleIntents(ctx context.Context) {
	if p.intents == nil {
		return
	}
	n, err := p.intents.ExpireStaleIntents(ctx, p.now().Add(-p.callbackWindow))
	if err != nil {
		slog.ErrorContext(ctx, "failed to expire payment intents", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired stale payment intents", "count", n)
		p.recorder.IntentsExpiredAdd(n)
	}
}
