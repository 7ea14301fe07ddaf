package types

import (
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreatePaymentResponse struct {
	OrderCode        int64  `json:"orderCode"`
	CheckoutUrl      string `json:"checkoutUrl"`
	GatewayPaymentId string `json:"gatewayPaymentId,omitempty"`
}

type PaymentStatusResponse struct {
	OrderCode      int64  `json:"orderCode"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	TransactionRef string `json:"transactionRef,omitempty"`
}

type TransactionResponse struct {
	OrderCode      int64     `json:"orderCode"`
	Gateway        string    `json:"gateway"`
	TransactionRef string    `json:"transactionRef,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	PaymentDate    time.Time `json:"paymentDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

func TransactionsToResponse(transactions []*entity.PaymentTransaction) []*TransactionResponse {
	items := make([]*TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, &TransactionResponse{
			OrderCode:      tx.OrderCode,
			Gateway:        tx.Gateway,
			TransactionRef: tx.TransactionRef,
			Amount:         tx.Amount,
			Currency:       tx.Currency,
			Status:         tx.Status,
			PaymentDate:    tx.PaymentDate,
			CreatedAt:      tx.CreatedAt,
		})
	}
	return items
}

type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
}

type RefundResponse struct {
	OrderCode      int64  `json:"orderCode"`
	TransactionRef string `json:"transactionRef"`
}

type ConfirmWebhookResponse struct {
	WebhookUrl string `json:"webhookUrl"`
}

type VerifyReturnResponse struct {
	OrderCode   int64  `json:"orderCode"`
	Status      string `json:"status"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// GiftResponse is the public view of a gift. The verification code is
// never part of it.
type GiftResponse struct {
	GiftId           string    `json:"giftId"`
	Status           string    `json:"status"`
	SenderName       string    `json:"senderName"`
	SenderMessage    string    `json:"senderMessage,omitempty"`
	RecipientName    string    `json:"recipientName"`
	RecipientEmail   string    `json:"recipientEmail,omitempty"`
	ProductId        int64     `json:"productId"`
	ProductName      string    `json:"productName"`
	Quantity         int32     `json:"quantity"`
	UnitPrice        int64     `json:"unitPrice"`
	OrderNumber      string    `json:"orderNumber,omitempty"`
	ClaimOrderNumber string    `json:"claimOrderNumber,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

func GiftToResponse(gift *entity.Gift) *GiftResponse {
	resp := &GiftResponse{
		GiftId:         gift.GiftID,
		Status:         gift.Status,
		SenderName:     gift.SenderName,
		SenderMessage:  gift.SenderMessage,
		RecipientName:  gift.RecipientName,
		RecipientEmail: gift.RecipientEmail,
		ProductId:      gift.ProductID,
		ProductName:    gift.ProductName,
		Quantity:       gift.Quantity,
		UnitPrice:      gift.UnitPrice,
		ExpiresAt:      gift.ExpiresAt,
		CreatedAt:      gift.CreatedAt,
	}
	if gift.OrderNumber != nil {
		resp.OrderNumber = *gift.OrderNumber
	}
	if gift.ClaimOrderNumber != nil {
		resp.ClaimOrderNumber = *gift.ClaimOrderNumber
	}
	return resp
}

func GiftsToResponse(gifts []*entity.Gift) []*GiftResponse {
	items := make([]*GiftResponse, 0, len(gifts))
	for _, gift := range gifts {
		items = append(items, GiftToResponse(gift))
	}
	return items
}

type GiftPaymentResponse struct {
	GiftId      string    `json:"giftId"`
	OrderCode   int64     `json:"orderCode"`
	CheckoutUrl string    `json:"checkoutUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ClaimGiftResponse struct {
	GiftId           string `json:"giftId"`
	Status           string `json:"status"`
	ClaimOrderNumber string `json:"claimOrderNumber"`
}

type ListGiftsResponse struct {
	Gifts []*GiftResponse `json:"gifts"`
}
