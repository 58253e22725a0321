// Package notify publishes order confirmations for the mailer to pick up.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var ErrNoRecipient = errors.New("no recipient email")

type ConfirmationItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderConfirmation is the payload of the confirmation message.
type OrderConfirmation struct {
	OrderID       string                  `json:"order_id"`
	Email         string                  `json:"email"`
	UserID        string                  `json:"user_id"`
	PaymentMethod string                  `json:"payment_method"`
	Address       *domain.ShippingAddress `json:"shipping_address,omitempty"`
	Items         []ConfirmationItem      `json:"items"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Shipping      decimal.Decimal         `json:"shipping"`
	Discount      decimal.Decimal         `json:"discount"`
	DiscountCode  string                  `json:"discount_code,omitempty"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	SentAt        time.Time               `json:"sent_at"`
}

type Sender interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
}

// MessageWriter is the part of *kafka.Writer the sender needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSender struct {
	writer MessageWriter
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewKafkaSender(writer MessageWriter) *KafkaSender {
	return &KafkaSender{writer: writer}
}

func (s *KafkaSender) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmation: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("OrderConfirmed")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish order confirmation: %w", err)
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
