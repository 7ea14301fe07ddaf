package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
	"github.com/goattech/ms-go-checkout/app/gateway"
	"github.com/goattech/ms-go-checkout/app/types"
	"github.com/goattech/ms-go-checkout/config"
)

type transactionRepository interface {
	Create(ctx context.Context, tx *entity.PaymentTransaction) error
	ListByOrderCode(ctx context.Context, orderCode int64) ([]*entity.PaymentTransaction, error)
}

// giftSettler is how a confirmed payment reaches the gift lifecycle.
// Handled reports whether the order code belonged to a gift.
type giftSettler interface {
	SettlePaidOrderCode(ctx context.Context, orderCode, amount int64, transactionRef string) (bool, error)
}

type webhookConfirmer interface {
	ConfirmWebhook(ctx context.Context, webhookURL string) (string, error)
}

// PaymentService fronts the gateway registry and owns the shared settle
// path: every confirmed payment flows through it exactly once per order
// code, whether it arrived by webhook, return redirect, or reconcile.
type PaymentService struct {
	gateways    *gateway.Registry
	orderRepo   orderRepository
	txRepo      transactionRepository
	settler     giftSettler
	paymentsCfg config.PaymentsConfig
}

func NewPaymentService(
	gateways *gateway.Registry,
	orderRepo orderRepository,
	txRepo transactionRepository,
	settler giftSettler,
	paymentsCfg config.PaymentsConfig,
) *PaymentService {
	return &PaymentService{
		gateways:    gateways,
		orderRepo:   orderRepo,
		txRepo:      txRepo,
		settler:     settler,
		paymentsCfg: paymentsCfg,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.CreatePaymentResponse, error) {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	items := make([]gateway.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, gateway.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	orderCode := NewOrderCode(time.Now())
	output, err := g.CreatePayment(ctx, &gateway.CreateInput{
		OrderCode:   orderCode,
		Amount:      req.Amount,
		Description: req.Description,
		BuyerName:   req.BuyerName,
		BuyerEmail:  req.BuyerEmail,
		BuyerPhone:  req.BuyerPhone,
		Items:       items,
		ReturnURL:   req.ReturnUrl,
		CancelURL:   req.CancelUrl,
		ExtraData:   req.ExtraData,
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}

	return &types.CreatePaymentResponse{
		OrderCode:        orderCode,
		CheckoutUrl:      output.CheckoutURL,
		GatewayPaymentId: output.GatewayPaymentID,
	}, nil
}

// HandleWebhook authenticates an inbound gateway notification and, on a
// confirmed payment, runs the settle path. A rejected signature mutates
// nothing. Every verified event leaves one audit row regardless of
// status.
func (s *PaymentService) HandleWebhook(ctx context.Context, req *types.WebhookRequest) (*gateway.InboundEvent, error) {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	event, err := g.VerifyInbound(ctx, req.Payload)
	if err != nil {
		if errors.Is(err, gateway.ErrAuthentication) {
			return nil, ErrWebhookRejected
		}
		return nil, mapGatewayError(err)
	}

	now := time.Now().UTC()
	if err := s.txRepo.Create(ctx, &entity.PaymentTransaction{
		OrderCode:      event.OrderCode,
		Gateway:        g.Name(),
		TransactionRef: event.TransactionRef,
		Amount:         event.Amount,
		Currency:       settlementCurrency(s.paymentsCfg),
		Status:         event.Status,
		PaymentDate:    now,
		RawResponse:    event.Raw,
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}

	if event.Status == entity.TransactionStatusSuccess {
		if err := s.settle(ctx, event.OrderCode, event.Amount, event.TransactionRef); err != nil {
			return nil, err
		}
	}

	return event, nil
}

// VerifyReturn reconciles a payment synchronously after the shopper is
// redirected back, without trusting anything in the redirect itself.
// Like the webhook branch it leaves one audit row per poll result.
func (s *PaymentService) VerifyReturn(ctx context.Context, req *types.VerifyReturnRequest) (*types.VerifyReturnResponse, error) {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	result, err := g.GetStatus(ctx, req.OrderCode)
	if err != nil {
		return nil, mapGatewayError(err)
	}

	now := time.Now().UTC()
	if err := s.txRepo.Create(ctx, &entity.PaymentTransaction{
		OrderCode:      req.OrderCode,
		Gateway:        g.Name(),
		TransactionRef: result.TransactionRef,
		Amount:         result.Amount,
		Currency:       settlementCurrency(s.paymentsCfg),
		Status:         result.Status,
		PaymentDate:    now,
		RawResponse:    result.Raw,
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}

	if result.Status == entity.TransactionStatusSuccess {
		if err := s.settle(ctx, req.OrderCode, result.Amount, result.TransactionRef); err != nil {
			return nil, err
		}
	}

	resp := &types.VerifyReturnResponse{
		OrderCode: req.OrderCode,
		Status:    result.Status,
	}
	order, err := s.orderRepo.FindByPaymentOrderCode(ctx, req.OrderCode)
	if err != nil {
		return nil, err
	}
	if order != nil {
		resp.OrderNumber = order.OrderNumber
	}
	return resp, nil
}

func (s *PaymentService) CheckStatus(ctx context.Context, req *types.CheckStatusRequest) (*types.PaymentStatusResponse, error) {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	result, err := g.GetStatus(ctx, req.OrderCode)
	if err != nil {
		return nil, mapGatewayError(err)
	}

	return &types.PaymentStatusResponse{
		OrderCode:      req.OrderCode,
		Status:         result.Status,
		Amount:         result.Amount,
		TransactionRef: result.TransactionRef,
	}, nil
}

func (s *PaymentService) CancelPayment(ctx context.Context, req *types.CancelPaymentRequest) error {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return ErrGatewayUnsupported
	}

	if err := g.Cancel(ctx, req.OrderCode, req.Reason); err != nil {
		return mapGatewayError(err)
	}
	return nil
}

func (s *PaymentService) RefundPayment(ctx context.Context, req *types.RefundPaymentRequest) (*types.RefundResponse, error) {
	g, err := s.gateways.Get(req.Gateway)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	refundRef, err := g.Refund(ctx, req.OrderCode, req.TransactionRef, req.Amount, req.Description)
	if err != nil {
		return nil, mapGatewayError(err)
	}

	return &types.RefundResponse{
		OrderCode:      req.OrderCode,
		TransactionRef: refundRef,
	}, nil
}

// ConfirmWebhook registers the webhook URL with any gateway that offers
// registration.
func (s *PaymentService) ConfirmWebhook(ctx context.Context, gatewayName string, req *types.ConfirmWebhookRequest) (*types.ConfirmWebhookResponse, error) {
	g, err := s.gateways.Get(gatewayName)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	confirmer, ok := g.(webhookConfirmer)
	if !ok {
		return nil, ErrOperationNotSupported
	}

	confirmed, err := confirmer.ConfirmWebhook(ctx, req.WebhookUrl)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return &types.ConfirmWebhookResponse{WebhookUrl: confirmed}, nil
}

func (s *PaymentService) ListTransactions(ctx context.Context, orderCode int64) ([]*entity.PaymentTransaction, error) {
	return s.txRepo.ListByOrderCode(ctx, orderCode)
}

// settle routes a confirmed payment to its owner. Gifts take priority;
// a bare storefront order is marked paid in place. An unknown order
// code is not an error here, the audit row already recorded the event.
func (s *PaymentService) settle(ctx context.Context, orderCode, amount int64, transactionRef string) error {
	if s.settler != nil {
		handled, err := s.settler.SettlePaidOrderCode(ctx, orderCode, amount, transactionRef)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	order, err := s.orderRepo.FindByPaymentOrderCode(ctx, orderCode)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	if amount != order.TotalAmount {
		return fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, amount, order.TotalAmount)
	}

	_, err = s.orderRepo.MarkPaid(ctx, order.OrderNumber, entity.OrderStatusConfirmed, time.Now().UTC())
	return err
}

func settlementCurrency(cfg config.PaymentsConfig) string {
	if cfg.Currency != "" {
		return cfg.Currency
	}
	return "VND"
}

// NewOrderCode derives a gateway-visible correlation id from the clock
// plus a random suffix. Collisions are caught by the unique index and
// retried by the caller.
func NewOrderCode(now time.Time) int64 {
	return now.UnixMilli()*1000 + int64(rand.Intn(1000))
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrUnavailable):
		return ErrGatewayUnavailable
	case errors.Is(err, gateway.ErrRejected):
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	case errors.Is(err, gateway.ErrOperationNotSupported):
		return ErrOperationNotSupported
	case errors.Is(err, gateway.ErrNotSupported):
		return ErrGatewayUnsupported
	default:
		return err
	}
}
