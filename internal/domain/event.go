package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const EventOrderCreated = "order.created"

type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"`
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

type orderCreatedPayload struct {
	OrderID     string       `json:"order_id"`
	UserID      string       `json:"user_id"`
	Mode        CheckoutMode `json:"mode"`
	Items       []OrderItem  `json:"items"`
	TotalAmount float64      `json:"total_amount"`
	Currency    string       `json:"currency"`
	PaymentID   string       `json:"payment_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

func NewOrderCreatedEvent(o *Order) (*OutboxEvent, error) {
	p := orderCreatedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Mode:        o.Mode,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt,
	}
	if o.Payment != nil {
		p.PaymentID = o.Payment.GatewayPaymentID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: o.ID,
		EventType:   EventOrderCreated,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
