package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

type CreateGiftPaymentRequest struct {
	SenderId      string `json:"senderId"`
	SenderName    string `json:"senderName"`
	SenderEmail   string `json:"senderEmail"`
	SenderMessage string `json:"senderMessage"`

	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientPhone string `json:"recipientPhone"`

	ProductId int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`

	ReturnUrl string `json:"returnUrl"`
	CancelUrl string `json:"cancelUrl"`
}

func NewCreateGiftPaymentRequestFromContext(ctx echo.Context) (*CreateGiftPaymentRequest, error) {
	var body CreateGiftPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.SenderId = strings.TrimSpace(body.SenderId)
	body.SenderName = strings.TrimSpace(body.SenderName)
	body.SenderEmail = strings.ToLower(strings.TrimSpace(body.SenderEmail))
	body.SenderMessage = strings.TrimSpace(body.SenderMessage)
	body.RecipientName = strings.TrimSpace(body.RecipientName)
	body.RecipientEmail = strings.ToLower(strings.TrimSpace(body.RecipientEmail))
	body.RecipientPhone = strings.TrimSpace(body.RecipientPhone)
	body.ReturnUrl = strings.TrimSpace(body.ReturnUrl)
	body.CancelUrl = strings.TrimSpace(body.CancelUrl)

	return &body, nil
}

func (r *CreateGiftPaymentRequest) Validate() error {
	if r.SenderName == "" {
		return errors.New("senderName is required")
	}
	if r.SenderEmail == "" {
		return errors.New("senderEmail is required")
	}
	if r.RecipientName == "" {
		return errors.New("recipientName is required")
	}
	if r.RecipientEmail == "" {
		return errors.New("recipientEmail is required")
	}
	if r.ProductId <= 0 {
		return errors.New("productId must be > 0")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if r.ReturnUrl == "" {
		return errors.New("returnUrl is required")
	}
	if r.CancelUrl == "" {
		return errors.New("cancelUrl is required")
	}
	return nil
}

type VerifyGiftPaymentRequest struct {
	OrderCode int64 `json:"orderCode"`
}

func NewVerifyGiftPaymentRequestFromContext(ctx echo.Context) (*VerifyGiftPaymentRequest, error) {
	var body VerifyGiftPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *VerifyGiftPaymentRequest) Validate() error {
	if r.OrderCode <= 0 {
		return errors.New("orderCode must be > 0")
	}
	return nil
}

type VerifyGiftCodeRequest struct {
	GiftId string `json:"giftId"`
	Code   string `json:"code"`
}

func NewVerifyGiftCodeRequestFromContext(ctx echo.Context) (*VerifyGiftCodeRequest, error) {
	var body VerifyGiftCodeRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.GiftId = strings.TrimSpace(body.GiftId)
	body.Code = strings.TrimSpace(body.Code)
	return &body, nil
}

func (r *VerifyGiftCodeRequest) Validate() error {
	if r.GiftId == "" {
		return errors.New("giftId is required")
	}
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type ClaimGiftRequest struct {
	GiftId           string `json:"giftId"`
	RecipientPhone   string `json:"recipientPhone"`
	RecipientAddress string `json:"recipientAddress"`
}

func NewClaimGiftRequestFromContext(ctx echo.Context) (*ClaimGiftRequest, error) {
	var body ClaimGiftRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.GiftId = strings.TrimSpace(body.GiftId)
	body.RecipientPhone = strings.TrimSpace(body.RecipientPhone)
	body.RecipientAddress = strings.TrimSpace(body.RecipientAddress)
	return &body, nil
}

func (r *ClaimGiftRequest) Validate() error {
	if r.GiftId == "" {
		return errors.New("giftId is required")
	}
	if r.RecipientPhone == "" {
		return errors.New("recipientPhone is required")
	}
	if r.RecipientAddress == "" {
		return errors.New("recipientAddress is required")
	}
	return nil
}

type GetGiftRequest struct {
	GiftId string
}

func NewGetGiftRequestFromContext(ctx echo.Context) (*GetGiftRequest, error) {
	return &GetGiftRequest{GiftId: strings.TrimSpace(ctx.Param("giftId"))}, nil
}

func (r *GetGiftRequest) Validate() error {
	if r.GiftId == "" {
		return errors.New("giftId is required")
	}
	return nil
}

type ListGiftsRequest struct {
	SenderEmail    string
	RecipientEmail string
}

func NewListSentGiftsRequestFromContext(ctx echo.Context) (*ListGiftsRequest, error) {
	return &ListGiftsRequest{
		SenderEmail: strings.ToLower(strings.TrimSpace(ctx.QueryParam("senderEmail"))),
	}, nil
}

func NewListReceivedGiftsRequestFromContext(ctx echo.Context) (*ListGiftsRequest, error) {
	return &ListGiftsRequest{
		RecipientEmail: strings.ToLower(strings.TrimSpace(ctx.QueryParam("recipientEmail"))),
	}, nil
}

func (r *ListGiftsRequest) Validate() error {
	if r.SenderEmail == "" && r.RecipientEmail == "" {
		return errors.New("email is required")
	}
	return nil
}
