package entity

import "time"

const (
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusPending   = "pending"
	TransactionStatusCancelled = "cancelled"
)

// PaymentTransaction is an append-only audit row, one per settlement
// event received from a gateway (webhook delivery, return-URL poll,
// redeliveries included).
type PaymentTransaction struct {
	ID uint64

	OrderCode   int64
	OrderNumber *string

	Gateway        string
	TransactionRef string

	Amount   int64
	Currency string
	Status   string

	PaymentDate time.Time
	RawResponse string

	CreatedAt time.Time
}
