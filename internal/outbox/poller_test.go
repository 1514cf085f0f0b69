package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/memory"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	failFor   map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[e.ID] {
		return errors.New("broker down")
	}
	p.published = append(p.published, e.ID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...)
}

type countingRecorder struct {
	mu      sync.Mutex
	ok      int
	failed  int
	expired int64
}

func (r *countingRecorder) EventPublished(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed++
		return
	}
	r.ok++
}

func (r *countingRecorder) IntentsExpiredAdd(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired += n
}

func addEvent(t *testing.T, repo Repository, id string) {
	t.Helper()
	require.NoError(t, repo.AddEvent(context.Background(), &domain.OutboxEvent{
		ID:          id,
		AggregateID: "order-" + id,
		EventType:   domain.EventOrderCreated,
		Payload:     []byte(`{"order_id":"order-` + id + `"}`),
		CreatedAt:   time.Now().UTC(),
	}))
}

func TestPoller_PublishesAndMarksEvents(t *testing.T) {
	store := memory.NewStore()
	addEvent(t, store, "e1")
	addEvent(t, store, "e2")

	pub := &recordingPublisher{}
	rec := &countingRecorder{}
	p := NewPoller(store, pub, nil, 15*time.Minute, rec)

	p.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{"e1", "e2"}, pub.ids())
	left, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, 2, rec.ok)

	p.processUnpublishedEvents(context.Background())
	assert.Len(t, pub.ids(), 2, "processed events are not published again")
}

func TestPoller_FailedPublishStaysInOutbox(t *testing.T) {
	store := memory.NewStore()
	addEvent(t, store, "e1")
	addEvent(t, store, "e2")

	pub := &recordingPublisher{failFor: map[string]bool{"e1": true}}
	rec := &countingRecorder{}
	p := NewPoller(store, pub, nil, 15*time.Minute, rec)

	p.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{"e2"}, pub.ids())
	left, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "e1", left[0].ID)
	assert.Equal(t, 1, rec.failed)
}

func TestPoller_ExpiresStaleIntents(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreateIntent(ctx, &domain.PaymentIntent{
		GatewayOrderID: "order_old", UserID: "u1", AmountMinor: 100, Currency: "INR",
		CreatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.CreateIntent(ctx, &domain.PaymentIntent{
		GatewayOrderID: "order_new", UserID: "u1", AmountMinor: 100, Currency: "INR",
		CreatedAt: now,
	}))

	rec := &countingRecorder{}
	p := NewPoller(store, LogPublisher{}, store, 15*time.Minute, rec)
	p.now = func() time.Time { return now }

	p.expireStaleIntents(ctx)

	old, err := store.GetIntent(ctx, "order_old")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentExpired, old.Status)

	fresh, err := store.GetIntent(ctx, "order_new")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCreated, fresh.Status)
	assert.Equal(t, int64(1), rec.expired)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	addEvent(t, store, "e1")

	pub := &recordingPublisher{}
	p := NewPoller(store, pub, store, time.Minute, nil)
	p.eventTick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(pub.ids()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) string {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaPublisher_DeliversOrderEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	brokerAddr := setupKafka(t)
	createTopic(t, brokerAddr, DefaultTopic)

	store := memory.NewStore()
	addEvent(t, store, "e1")

	pub := NewKafkaPublisher(DefaultTopic, brokerAddr)
	defer pub.Close()

	p := NewPoller(store, pub, nil, time.Minute, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.Eventually(t, func() bool {
		p.processUnpublishedEvents(ctx)
		left, err := store.GetUnprocessedEvents(ctx, 10)
		return err == nil && len(left) == 0
	}, 20*time.Second, 500*time.Millisecond)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    DefaultTopic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-e1", string(msg.Key))
	assert.JSONEq(t, `{"order_id":"order-e1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, domain.EventOrderCreated, string(msg.Headers[0].Value))
}
