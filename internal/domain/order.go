package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
)

// GuestUserID marks orders placed without an authenticated user.
const GuestUserID = "guest"

type OrderItem struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           string          `json:"user_id"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	ShippingStatus   ShippingStatus  `json:"shipping_status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	Items            []OrderItem     `json:"items,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsGuest reports whether the order was placed with the guest marker.
func (o *Order) IsGuest() bool {
	return o.UserID == GuestUserID
}
