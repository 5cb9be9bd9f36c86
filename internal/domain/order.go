package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks an order record through the payment flow.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusCompleted     OrderStatus = "completed"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
)

// Order is the server-side record created when an authenticated session
// submits a checkout. TotalAmount is stored in the smallest currency unit.
type Order struct {
	ID            uuid.UUID     `json:"id"`
	UserID        string        `json:"user_id"`
	FullName      string        `json:"full_name"`
	PhoneNumber   string        `json:"phone_number"`
	StreetAddress string        `json:"street_address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	ZipCode       string        `json:"zip_code"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        OrderStatus   `json:"status"`
	Items         []CartItem    `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
