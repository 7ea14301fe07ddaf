package entity

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusSuccess   = "success"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Order is the durable order header. Amounts are VND, which has no minor
// unit, so every money field is a whole int64.
type Order struct {
	ID uint64

	OrderNumber string
	CustomerID  *string

	// PaymentOrderCode correlates the order with a gateway payment
	// attempt. Unique where set; materialization idempotency keys on it.
	PaymentOrderCode *int64

	Subtotal    int64
	ShippingFee int64
	Discount    int64
	TotalAmount int64

	OrderStatus   string
	PaymentStatus string
	PaymentMethod string

	ShippingFullName string
	ShippingPhone    string
	ShippingAddress  string
	CustomerNote     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID      uint64
	OrderID uint64

	ProductID   int64
	ProductName string
	SKU         string

	Quantity   int32
	UnitPrice  int64
	Discount   int64
	TotalPrice int64
}
