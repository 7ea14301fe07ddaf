package entity

import "time"

const (
	GiftStatusPendingPayment = "pending_payment"
	GiftStatusSent           = "sent"
	GiftStatusVerified       = "verified"
	GiftStatusClaimed        = "claimed"
	GiftStatusExpired        = "expired"
)

type Gift struct {
	ID uint64

	// GiftID is the opaque public lookup token.
	GiftID string

	SenderID      *string
	SenderName    string
	SenderEmail   string
	SenderMessage string

	RecipientName    string
	RecipientEmail   string
	RecipientPhone   string
	RecipientAddress string

	ProductID   int64
	ProductName string
	ProductSKU  string
	UnitPrice   int64
	Quantity    int32

	VerificationCode string
	VerifyAttempts   int32

	Status string

	// PaymentOrderCode ties the gift to the sender's payment attempt.
	PaymentOrderCode int64

	// OrderNumber is the sender's paid order, set when the gift reaches
	// sent. ClaimOrderNumber is the recipient's shipment order, set at
	// claim.
	OrderNumber      *string
	ClaimOrderNumber *string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *Gift) Terminal() bool {
	return g.Status == GiftStatusClaimed || g.Status == GiftStatusExpired
}

func (g *Gift) ExpiredBy(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

type GiftEmailRecord struct {
	ID uint64

	GiftID    string
	EmailType string
	SentTo    string
	Status    string
	Error     *string

	CreatedAt time.Time
}

// Product is the catalog view this service needs; the catalog itself is
// owned elsewhere and read-only here.
type Product struct {
	ID        int64
	Name      string
	SKU       string
	Price     int64
	SalePrice *int64
	ImageURL  string
}

// EffectivePrice is what the sender pays per unit.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}
