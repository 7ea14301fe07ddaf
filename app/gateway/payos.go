package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	payos "github.com/payOSHQ/payos-lib-golang"

	"github.com/goattech/ms-go-checkout/app/entity"
)

const payosGatewayName = "payos"

type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

// PayOSGateway delegates request signing, response checksum checks and
// webhook verification entirely to the vendor SDK. Its only job is
// shape mapping and translating SDK failures into the shared taxonomy.
type PayOSGateway struct{}

func NewPayOSGateway(cfg PayOSConfig) (*PayOSGateway, error) {
	if err := payos.Key(cfg.ClientID, cfg.APIKey, cfg.ChecksumKey); err != nil {
		return nil, fmt.Errorf("payos credentials rejected: %w", err)
	}
	return &PayOSGateway{}, nil
}

func (g *PayOSGateway) Name() string {
	return payosGatewayName
}

func (g *PayOSGateway) CreatePayment(_ context.Context, input *CreateInput) (*CreateOutput, error) {
	items := make([]payos.Item, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, payos.Item{
			Name:     truncateRunes(item.Name, 25),
			Quantity: int(item.Quantity),
			Price:    int(item.Price),
		})
	}

	body := payos.CheckoutRequestType{
		OrderCode: input.OrderCode,
		Amount:    int(input.Amount),
		// PayOS caps the description at 25 characters.
		Description: truncateRunes(input.Description, 25),
		Items:       items,
		CancelUrl:   input.CancelURL,
		ReturnUrl:   input.ReturnURL,
		BuyerName:   &input.BuyerName,
		BuyerEmail:  &input.BuyerEmail,
		BuyerPhone:  &input.BuyerPhone,
	}

	data, err := payos.CreatePaymentLink(body)
	if err != nil {
		return nil, fmt.Errorf("%w: payos create payment link: %v", ErrUnavailable, err)
	}

	raw, _ := json.Marshal(data)
	return &CreateOutput{
		CheckoutURL:      data.CheckoutUrl,
		GatewayPaymentID: data.PaymentLinkId,
		Raw:              string(raw),
	}, nil
}

func (g *PayOSGateway) GetStatus(_ context.Context, orderCode int64) (*StatusResult, error) {
	info, err := payos.GetPaymentLinkInformation(strconv.FormatInt(orderCode, 10))
	if err != nil {
		return nil, fmt.Errorf("%w: payos payment link information: %v", ErrUnavailable, err)
	}

	transactionRef := ""
	if len(info.Transactions) > 0 {
		transactionRef = info.Transactions[0].Reference
	}
	if transactionRef == "" {
		transactionRef = info.Id
	}

	raw, _ := json.Marshal(info)
	return &StatusResult{
		Status:         classifyPayOSStatus(info.Status),
		Amount:         int64(info.Amount),
		TransactionRef: transactionRef,
		Raw:            string(raw),
	}, nil
}

func (g *PayOSGateway) Cancel(_ context.Context, orderCode int64, reason string) error {
	var reasonPtr *string
	if strings.TrimSpace(reason) != "" {
		reasonPtr = &reason
	}
	if _, err := payos.CancelPaymentLink(strconv.FormatInt(orderCode, 10), reasonPtr); err != nil {
		return fmt.Errorf("%w: payos cancel payment link: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *PayOSGateway) Refund(_ context.Context, _ int64, _ string, _ int64, _ string) (string, error) {
	return "", fmt.Errorf("%w: payos refunds are handled from the merchant console", ErrOperationNotSupported)
}

func (g *PayOSGateway) VerifyInbound(_ context.Context, payload []byte) (*InboundEvent, error) {
	var webhook payos.WebhookType
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return nil, fmt.Errorf("%w: payos webhook payload malformed: %v", ErrAuthentication, err)
	}

	data, err := payos.VerifyPaymentWebhookData(webhook)
	if err != nil {
		return nil, fmt.Errorf("%w: payos webhook verification: %v", ErrAuthentication, err)
	}

	status := entity.TransactionStatusFailed
	if data.Code == "00" {
		status = entity.TransactionStatusSuccess
	}

	return &InboundEvent{
		OrderCode:      data.OrderCode,
		Amount:         int64(data.Amount),
		Status:         status,
		TransactionRef: data.Reference,
		Raw:            string(payload),
		Ack:            map[string]interface{}{"success": true},
	}, nil
}

// ConfirmWebhook registers the webhook URL with the counterparty. Not
// part of the shared capability surface; the orchestrator reaches it
// through a type assertion.
func (g *PayOSGateway) ConfirmWebhook(_ context.Context, webhookURL string) (string, error) {
	confirmed, err := payos.ConfirmWebhook(webhookURL)
	if err != nil {
		return "", fmt.Errorf("%w: payos confirm webhook: %v", ErrUnavailable, err)
	}
	return confirmed, nil
}

func classifyPayOSStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PAID":
		return entity.TransactionStatusSuccess
	case "PENDING", "PROCESSING":
		return entity.TransactionStatusPending
	case "CANCELLED":
		return entity.TransactionStatusCancelled
	case "EXPIRED":
		return entity.TransactionStatusFailed
	default:
		return entity.TransactionStatusFailed
	}
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

var _ Gateway = (*PayOSGateway)(nil)
