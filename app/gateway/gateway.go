package gateway

import "context"

// CreateInput describes a payment intent. OrderCode is the
// gateway-visible correlation id; amounts are whole VND.
type CreateInput struct {
	OrderCode   int64
	Amount      int64
	Description string

	BuyerName  string
	BuyerEmail string
	BuyerPhone string

	Items []LineItem

	ReturnURL string
	CancelURL string
	ExtraData string
}

type LineItem struct {
	Name     string
	Quantity int32
	Price    int64
}

type CreateOutput struct {
	CheckoutURL      string
	GatewayPaymentID string
	Raw              string
}

type StatusResult struct {
	Status         string
	Amount         int64
	TransactionRef string
	Raw            string
}

// InboundEvent is a verified webhook/IPN. Ack is the body the gateway
// expects back on a 200 response.
type InboundEvent struct {
	OrderCode      int64
	Amount         int64
	Status         string
	TransactionRef string
	Raw            string
	Ack            interface{}
}

// Gateway is the uniform capability surface over the two payment
// counterparties. The two implementations keep their own signing
// protocols; only the capability level is shared.
type Gateway interface {
	Name() string
	CreatePayment(ctx context.Context, input *CreateInput) (*CreateOutput, error)
	GetStatus(ctx context.Context, orderCode int64) (*StatusResult, error)
	Cancel(ctx context.Context, orderCode int64, reason string) error
	Refund(ctx context.Context, orderCode int64, transactionRef string, amount int64, description string) (string, error)
	// VerifyInbound authenticates a raw webhook payload. It returns
	// ErrAuthentication (wrapped) on any signature mismatch and must
	// not be trusted for state changes unless it returns nil error.
	VerifyInbound(ctx context.Context, payload []byte) (*InboundEvent, error)
}
