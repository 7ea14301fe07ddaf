package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
	"github.com/goattech/ms-go-checkout/app/signature"
)

const momoGatewayName = "momo"

// MoMo result codes. 0 is settled; the 7xxx/9000 family means the
// payment is still in flight; 1003/1006 are user/merchant cancellation.
const (
	momoResultSuccess    = 0
	momoResultInitiated  = 1000
	momoResultStorePaid  = 7000
	momoResultProcessing = 7002
	momoResultAuthorized = 9000
	momoResultCanceled   = 1003
	momoResultDeclined   = 1006
)

type MoMoConfig struct {
	AccessKey   string
	SecretKey   string
	PartnerCode string
	PartnerName string
	StoreID     string
	Endpoint    string
	IPNURL      string
	RequestType string
	HTTPTimeout time.Duration
}

// MoMoGateway signs every request itself with the canonical-string
// codec; nothing is delegated to a vendor library.
type MoMoGateway struct {
	cfg    MoMoConfig
	signer *signature.Signer
	client *http.Client
}

func NewMoMoGateway(cfg MoMoConfig) *MoMoGateway {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.RequestType) == "" {
		cfg.RequestType = "payWithMethod"
	}

	return &MoMoGateway{
		cfg:    cfg,
		signer: signature.NewSigner(cfg.SecretKey),
		client: &http.Client{Timeout: timeout},
	}
}

func (g *MoMoGateway) Name() string {
	return momoGatewayName
}

func (g *MoMoGateway) CreatePayment(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
	orderID := strconv.FormatInt(input.OrderCode, 10)
	requestID := orderID
	amount := strconv.FormatInt(input.Amount, 10)

	// Field order fixed by the create protocol.
	sig := g.signer.Sign([]signature.Field{
		{Key: "accessKey", Value: g.cfg.AccessKey},
		{Key: "amount", Value: amount},
		{Key: "extraData", Value: input.ExtraData},
		{Key: "ipnUrl", Value: g.cfg.IPNURL},
		{Key: "orderId", Value: orderID},
		{Key: "orderInfo", Value: input.Description},
		{Key: "partnerCode", Value: g.cfg.PartnerCode},
		{Key: "redirectUrl", Value: input.ReturnURL},
		{Key: "requestId", Value: requestID},
		{Key: "requestType", Value: g.cfg.RequestType},
	})

	body := map[string]interface{}{
		"partnerCode": g.cfg.PartnerCode,
		"partnerName": g.cfg.PartnerName,
		"storeId":     g.cfg.StoreID,
		"requestId":   requestID,
		"amount":      input.Amount,
		"orderId":     orderID,
		"orderInfo":   input.Description,
		"redirectUrl": input.ReturnURL,
		"ipnUrl":      g.cfg.IPNURL,
		"requestType": g.cfg.RequestType,
		"autoCapture": true,
		"lang":        "vi",
		"extraData":   input.ExtraData,
		"signature":   sig,
	}

	raw, err := g.postJSON(ctx, "/create", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
		RequestID  string `json:"requestId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: momo create response malformed: %v", ErrUnavailable, err)
	}
	if resp.ResultCode != momoResultSuccess {
		return nil, fmt.Errorf("%w: momo create code=%d message=%s", ErrRejected, resp.ResultCode, resp.Message)
	}

	return &CreateOutput{
		CheckoutURL:      resp.PayURL,
		GatewayPaymentID: orderID,
		Raw:              string(raw),
	}, nil
}

func (g *MoMoGateway) GetStatus(ctx context.Context, orderCode int64) (*StatusResult, error) {
	orderID := strconv.FormatInt(orderCode, 10)

	sig := g.signer.Sign([]signature.Field{
		{Key: "accessKey", Value: g.cfg.AccessKey},
		{Key: "orderId", Value: orderID},
		{Key: "partnerCode", Value: g.cfg.PartnerCode},
		{Key: "requestId", Value: orderID},
	})

	body := map[string]interface{}{
		"partnerCode": g.cfg.PartnerCode,
		"requestId":   orderID,
		"orderId":     orderID,
		"lang":        "vi",
		"signature":   sig,
	}

	raw, err := g.postJSON(ctx, "/query", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ResultCode int   `json:"resultCode"`
		Amount     int64 `json:"amount"`
		TransID    int64 `json:"transId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: momo query response malformed: %v", ErrUnavailable, err)
	}

	return &StatusResult{
		Status:         classifyMoMoResult(resp.ResultCode),
		Amount:         resp.Amount,
		TransactionRef: strconv.FormatInt(resp.TransID, 10),
		Raw:            string(raw),
	}, nil
}

func (g *MoMoGateway) Cancel(_ context.Context, _ int64, _ string) error {
	// MoMo intents cannot be revoked once created; they lapse on their
	// own timeout.
	return fmt.Errorf("%w: momo payments cannot be canceled", ErrOperationNotSupported)
}

func (g *MoMoGateway) Refund(ctx context.Context, orderCode int64, transactionRef string, amount int64, description string) (string, error) {
	orderID := strconv.FormatInt(orderCode, 10)
	requestID := "REFUND" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	amountStr := strconv.FormatInt(amount, 10)
	if strings.TrimSpace(description) == "" {
		description = "Hoan tien don hang"
	}

	sig := g.signer.Sign([]signature.Field{
		{Key: "accessKey", Value: g.cfg.AccessKey},
		{Key: "amount", Value: amountStr},
		{Key: "description", Value: description},
		{Key: "orderId", Value: orderID},
		{Key: "partnerCode", Value: g.cfg.PartnerCode},
		{Key: "requestId", Value: requestID},
		{Key: "transId", Value: transactionRef},
	})

	body := map[string]interface{}{
		"partnerCode": g.cfg.PartnerCode,
		"requestId":   requestID,
		"orderId":     orderID,
		"amount":      amountStr,
		"transId":     transactionRef,
		"description": description,
		"lang":        "vi",
		"signature":   sig,
	}

	raw, err := g.postJSON(ctx, "/refund", body)
	if err != nil {
		return "", err
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: momo refund response malformed: %v", ErrUnavailable, err)
	}
	if resp.ResultCode != momoResultSuccess {
		return "", fmt.Errorf("%w: momo refund code=%d message=%s", ErrRejected, resp.ResultCode, resp.Message)
	}

	return string(raw), nil
}

// momoIPN mirrors the IPN payload. Numeric fields stay numeric so the
// recomputed canonical string formats them exactly the way the
// counterparty did.
type momoIPN struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func (g *MoMoGateway) VerifyInbound(_ context.Context, payload []byte) (*InboundEvent, error) {
	var ipn momoIPN
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("%w: momo ipn payload malformed: %v", ErrAuthentication, err)
	}

	// The IPN is signed over the response field set, which is a
	// different list and order than the create request.
	ok := g.signer.Verify(ipn.Signature, []signature.Field{
		{Key: "accessKey", Value: g.cfg.AccessKey},
		{Key: "amount", Value: strconv.FormatInt(ipn.Amount, 10)},
		{Key: "extraData", Value: ipn.ExtraData},
		{Key: "message", Value: ipn.Message},
		{Key: "orderId", Value: ipn.OrderID},
		{Key: "orderInfo", Value: ipn.OrderInfo},
		{Key: "orderType", Value: ipn.OrderType},
		{Key: "partnerCode", Value: ipn.PartnerCode},
		{Key: "payType", Value: ipn.PayType},
		{Key: "requestId", Value: ipn.RequestID},
		{Key: "responseTime", Value: strconv.FormatInt(ipn.ResponseTime, 10)},
		{Key: "resultCode", Value: strconv.Itoa(ipn.ResultCode)},
		{Key: "transId", Value: strconv.FormatInt(ipn.TransID, 10)},
	})
	if !ok {
		return nil, fmt.Errorf("%w: momo ipn signature mismatch", ErrAuthentication)
	}

	orderCode, err := strconv.ParseInt(strings.TrimSpace(ipn.OrderID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: momo ipn orderId is not numeric", ErrAuthentication)
	}

	return &InboundEvent{
		OrderCode:      orderCode,
		Amount:         ipn.Amount,
		Status:         classifyMoMoResult(ipn.ResultCode),
		TransactionRef: strconv.FormatInt(ipn.TransID, 10),
		Raw:            string(payload),
		Ack: map[string]interface{}{
			"partnerCode":  ipn.PartnerCode,
			"requestId":    ipn.RequestID,
			"orderId":      ipn.OrderID,
			"resultCode":   0,
			"message":      "success",
			"responseTime": time.Now().UnixMilli(),
		},
	}, nil
}

func (g *MoMoGateway) postJSON(ctx context.Context, path string, body map[string]interface{}) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.Endpoint, "/")+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: momo request failed: path=%s status=%d body=%s", ErrUnavailable, path, resp.StatusCode, string(raw))
	}

	return raw, nil
}

func classifyMoMoResult(code int) string {
	switch code {
	case momoResultSuccess:
		return entity.TransactionStatusSuccess
	case momoResultInitiated, momoResultStorePaid, momoResultProcessing, momoResultAuthorized:
		return entity.TransactionStatusPending
	case momoResultCanceled, momoResultDeclined:
		return entity.TransactionStatusCancelled
	default:
		return entity.TransactionStatusFailed
	}
}

var _ Gateway = (*MoMoGateway)(nil)
