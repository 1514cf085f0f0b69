package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	}
	return false
}

type FulfillmentStatus string

const (
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
	FulfillmentReturned   FulfillmentStatus = "returned"
)

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentProcessing, FulfillmentShipped, FulfillmentDelivered, FulfillmentCancelled, FulfillmentReturned:
		return true
	}
	return false
}

func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentCancelled || s == FulfillmentReturned
}

func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	switch s {
	case FulfillmentProcessing:
		return next == FulfillmentShipped || next == FulfillmentCancelled
	case FulfillmentShipped:
		return next == FulfillmentDelivered || next == FulfillmentCancelled || next == FulfillmentReturned
	case FulfillmentDelivered:
		return next == FulfillmentReturned
	}
	return false
}

// CheckoutMode names the entry protocol that produced an order.
type CheckoutMode string

const (
	CheckoutDirect  CheckoutMode = "direct"
	CheckoutGateway CheckoutMode = "gateway"
)

type OrderItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	VariantID string  `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	Name      string  `bson:"name" json:"name"`
	SKU       string  `bson:"sku,omitempty" json:"sku,omitempty"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}

type Address struct {
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Tracking struct {
	Number  string `bson:"number,omitempty" json:"number,omitempty"`
	Courier string `bson:"courier,omitempty" json:"courier,omitempty"`
}

// PaymentRecord is the verified gateway payment backing a paid order.
type PaymentRecord struct {
	GatewayOrderID   string        `bson:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID string        `bson:"gateway_payment_id" json:"gateway_payment_id"`
	Amount           int64         `bson:"amount" json:"amount"`
	Currency         string        `bson:"currency" json:"currency"`
	Status           PaymentStatus `bson:"status" json:"status"`
	VerifiedAt       time.Time     `bson:"verified_at" json:"verified_at"`
}

type Order struct {
	ID                string            `bson:"_id" json:"id"`
	UserID            string            `bson:"user_id" json:"user_id"`
	Items             []OrderItem       `bson:"items" json:"items"`
	ShippingAddress   Address           `bson:"shipping_address" json:"shipping_address"`
	TotalAmount       float64           `bson:"total_amount" json:"total_amount"`
	Currency          string            `bson:"currency" json:"currency"`
	PaymentStatus     PaymentStatus     `bson:"payment_status" json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `bson:"fulfillment_status" json:"fulfillment_status"`
	Tracking          *Tracking         `bson:"tracking,omitempty" json:"tracking,omitempty"`
	Payment           *PaymentRecord    `bson:"payment,omitempty" json:"payment,omitempty"`
	Mode              CheckoutMode      `bson:"mode" json:"mode"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `bson:"updated_at" json:"updated_at"`
}

func NewOrder(userID string, mode CheckoutMode, items []OrderItem, address Address) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Items:             items,
		ShippingAddress:   address,
		TotalAmount:       ItemsTotal(items),
		Currency:          DefaultCurrency,
		PaymentStatus:     PaymentStatusPending,
		FulfillmentStatus: FulfillmentProcessing,
		Mode:              mode,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func ItemsTotal(items []OrderItem) float64 {
	total := Zero()
	for _, it := range items {
		total = total.Add(LineTotal(it.Price, it.Quantity))
	}
	return ToFloat(total)
}

// OrderFilter narrows admin order listings. Zero values match everything.
type OrderFilter struct {
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	From              time.Time
	To                time.Time
}
