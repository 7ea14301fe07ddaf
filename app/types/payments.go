package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type PaymentItem struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	Price    int64  `json:"price"`
}

type CreatePaymentRequest struct {
	Gateway string `json:"-"`

	Amount      int64         `json:"amount"`
	Description string        `json:"description"`
	BuyerName   string        `json:"buyerName"`
	BuyerEmail  string        `json:"buyerEmail"`
	BuyerPhone  string        `json:"buyerPhone"`
	Items       []PaymentItem `json:"items"`
	ReturnUrl   string        `json:"returnUrl"`
	CancelUrl   string        `json:"cancelUrl"`
	ExtraData   string        `json:"extraData"`
}

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Gateway = strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))
	body.Description = strings.TrimSpace(body.Description)
	body.BuyerName = strings.TrimSpace(body.BuyerName)
	body.BuyerEmail = strings.TrimSpace(body.BuyerEmail)
	body.BuyerPhone = strings.TrimSpace(body.BuyerPhone)
	body.ReturnUrl = strings.TrimSpace(body.ReturnUrl)
	body.CancelUrl = strings.TrimSpace(body.CancelUrl)

	return &body, nil
}

func (r *CreatePaymentRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if r.ReturnUrl == "" {
		return errors.New("returnUrl is required")
	}
	if r.CancelUrl == "" {
		return errors.New("cancelUrl is required")
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return errors.New("item name is required")
		}
		if item.Quantity <= 0 {
			return errors.New("item quantity must be > 0")
		}
		if item.Price < 0 {
			return errors.New("item price must be >= 0")
		}
	}
	return nil
}

// WebhookRequest carries the untouched inbound body. The adapter owns
// parsing; nothing here may be trusted before signature verification.
type WebhookRequest struct {
	Gateway string
	Payload []byte
}

func NewWebhookRequestFromContext(ctx echo.Context) (*WebhookRequest, error) {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}
	return &WebhookRequest{
		Gateway: strings.ToLower(strings.TrimSpace(ctx.Param("gateway"))),
		Payload: payload,
	}, nil
}

func (r *WebhookRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

type CheckStatusRequest struct {
	Gateway   string
	OrderCode int64
}

func NewCheckStatusRequestFromContext(ctx echo.Context) (*CheckStatusRequest, error) {
	orderCode, err := strconv.ParseInt(strings.TrimSpace(ctx.QueryParam("orderCode")), 10, 64)
	if err != nil {
		return nil, err
	}
	return &CheckStatusRequest{
		Gateway:   strings.ToLower(strings.TrimSpace(ctx.Param("gateway"))),
		OrderCode: orderCode,
	}, nil
}

func (r *CheckStatusRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if r.OrderCode <= 0 {
		return errors.New("orderCode must be > 0")
	}
	return nil
}

type CancelPaymentRequest struct {
	Gateway string `json:"-"`

	OrderCode int64  `json:"orderCode"`
	Reason    string `json:"reason"`
}

func NewCancelPaymentRequestFromContext(ctx echo.Context) (*CancelPaymentRequest, error) {
	var body CancelPaymentRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.Gateway = strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))
	body.Reason = strings.TrimSpace(body.Reason)
	return &body, nil
}

func (r *CancelPaymentRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if r.OrderCode <= 0 {
		return errors.New("orderCode must be > 0")
	}
	return nil
}

type RefundPaymentRequest struct {
	Gateway string `json:"-"`

	OrderCode      int64  `json:"orderCode"`
	TransactionRef string `json:"transId"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description"`
}

func NewRefundPaymentRequestFromContext(ctx echo.Context) (*RefundPaymentRequest, error) {
	var body RefundPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Gateway = strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))
	body.TransactionRef = strings.TrimSpace(body.TransactionRef)
	body.Description = strings.TrimSpace(body.Description)
	return &body, nil
}

func (r *RefundPaymentRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if r.OrderCode <= 0 {
		return errors.New("orderCode must be > 0")
	}
	if r.TransactionRef == "" {
		return errors.New("transId is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

type VerifyReturnRequest struct {
	Gateway string `json:"-"`

	OrderCode   int64  `json:"orderCode"`
	OrderNumber string `json:"orderNumber"`
}

func NewVerifyReturnRequestFromContext(ctx echo.Context) (*VerifyReturnRequest, error) {
	var body VerifyReturnRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Gateway = strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))
	body.OrderNumber = strings.TrimSpace(body.OrderNumber)
	return &body, nil
}

func (r *VerifyReturnRequest) Validate() error {
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	if r.OrderCode <= 0 {
		return errors.New("orderCode must be > 0")
	}
	return nil
}

type ConfirmWebhookRequest struct {
	WebhookUrl string `json:"webhookUrl"`
}

func NewConfirmWebhookRequestFromContext(ctx echo.Context) (*ConfirmWebhookRequest, error) {
	var body ConfirmWebhookRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.WebhookUrl = strings.TrimSpace(body.WebhookUrl)
	return &body, nil
}

func (r *ConfirmWebhookRequest) Validate() error {
	if r.WebhookUrl == "" {
		return errors.New("webhookUrl is required")
	}
	return nil
}
