package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
	"github.com/goattech/ms-go-checkout/app/gateway"
	"github.com/goattech/ms-go-checkout/app/notify"
	"github.com/goattech/ms-go-checkout/app/repository"
	"github.com/goattech/ms-go-checkout/app/types"
	"github.com/goattech/ms-go-checkout/config"
	"github.com/sirupsen/logrus"
)

type fakeOrderRepo struct {
	orders map[string]*entity.Order
	items  []*entity.OrderItem
	nextID uint64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*entity.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	if _, ok := r.orders[order.OrderNumber]; ok {
		return repository.ErrOrderAlreadyExists
	}
	if order.PaymentOrderCode != nil {
		for _, item := range r.orders {
			if item.PaymentOrderCode != nil && *item.PaymentOrderCode == *order.PaymentOrderCode {
				return repository.ErrOrderAlreadyExists
			}
		}
	}
	order.ID = r.nextID
	r.nextID++
	copyItem := *order
	r.orders[order.OrderNumber] = &copyItem
	return nil
}

func (r *fakeOrderRepo) CreateItem(_ context.Context, item *entity.OrderItem) error {
	item.ID = r.nextID
	r.nextID++
	copyItem := *item
	r.items = append(r.items, &copyItem)
	return nil
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*entity.Order, error) {
	item, ok := r.orders[orderNumber]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakeOrderRepo) FindByPaymentOrderCode(_ context.Context, orderCode int64) (*entity.Order, error) {
	for _, item := range r.orders {
		if item.PaymentOrderCode != nil && *item.PaymentOrderCode == orderCode {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) ListItems(_ context.Context, orderID uint64) ([]*entity.OrderItem, error) {
	items := make([]*entity.OrderItem, 0)
	for _, item := range r.items {
		if item.OrderID == orderID {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, orderNumber, orderStatus string, now time.Time) (bool, error) {
	item, ok := r.orders[orderNumber]
	if !ok {
		return false, nil
	}
	if item.PaymentStatus != entity.PaymentStatusUnpaid && item.PaymentStatus != entity.PaymentStatusFailed {
		return false, nil
	}
	item.PaymentStatus = entity.PaymentStatusPaid
	item.OrderStatus = orderStatus
	item.UpdatedAt = now
	return true, nil
}

func (r *fakeOrderRepo) MarkPaymentFailed(_ context.Context, orderNumber string, now time.Time) (bool, error) {
	item, ok := r.orders[orderNumber]
	if !ok {
		return false, nil
	}
	if item.PaymentStatus != entity.PaymentStatusUnpaid {
		return false, nil
	}
	item.PaymentStatus = entity.PaymentStatusFailed
	item.UpdatedAt = now
	return true, nil
}

type fakeTxRepo struct {
	transactions []*entity.PaymentTransaction
}

func (r *fakeTxRepo) Create(_ context.Context, tx *entity.PaymentTransaction) error {
	copyItem := *tx
	r.transactions = append(r.transactions, &copyItem)
	return nil
}

func (r *fakeTxRepo) ListByOrderCode(_ context.Context, orderCode int64) ([]*entity.PaymentTransaction, error) {
	items := make([]*entity.PaymentTransaction, 0)
	for _, item := range r.transactions {
		if item.OrderCode == orderCode {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

type fakeGiftRepo struct {
	gifts      map[string]*entity.Gift
	createErrs []error
	nextID     uint64
}

func newFakeGiftRepo() *fakeGiftRepo {
	return &fakeGiftRepo{gifts: map[string]*entity.Gift{}, nextID: 1}
}

func (r *fakeGiftRepo) Create(_ context.Context, gift *entity.Gift) error {
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := r.gifts[gift.GiftID]; ok {
		return repository.ErrGiftAlreadyExists
	}
	for _, item := range r.gifts {
		if item.PaymentOrderCode == gift.PaymentOrderCode {
			return repository.ErrGiftAlreadyExists
		}
	}
	gift.ID = r.nextID
	r.nextID++
	copyItem := *gift
	r.gifts[gift.GiftID] = &copyItem
	return nil
}

func (r *fakeGiftRepo) FindByGiftID(_ context.Context, giftID string) (*entity.Gift, error) {
	item, ok := r.gifts[giftID]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *fakeGiftRepo) FindByPaymentOrderCode(_ context.Context, orderCode int64) (*entity.Gift, error) {
	for _, item := range r.gifts {
		if item.PaymentOrderCode == orderCode {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *fakeGiftRepo) UpdateStatusFrom(_ context.Context, giftID, fromStatus, toStatus string, now time.Time) (bool, error) {
	item, ok := r.gifts[giftID]
	if !ok || item.Status != fromStatus {
		return false, nil
	}
	item.Status = toStatus
	item.UpdatedAt = now
	return true, nil
}

func (r *fakeGiftRepo) IncrementVerifyAttempts(_ context.Context, giftID string, now time.Time) (int32, error) {
	item, ok := r.gifts[giftID]
	if !ok {
		return 0, repository.ErrGiftNotFound
	}
	item.VerifyAttempts++
	item.UpdatedAt = now
	return item.VerifyAttempts, nil
}

func (r *fakeGiftRepo) SetOrderNumber(_ context.Context, giftID, orderNumber string, now time.Time) error {
	item, ok := r.gifts[giftID]
	if !ok {
		return repository.ErrGiftNotFound
	}
	item.OrderNumber = &orderNumber
	item.UpdatedAt = now
	return nil
}

func (r *fakeGiftRepo) SetClaimOrderNumber(_ context.Context, giftID, claimOrderNumber string, now time.Time) error {
	item, ok := r.gifts[giftID]
	if !ok {
		return repository.ErrGiftNotFound
	}
	item.ClaimOrderNumber = &claimOrderNumber
	item.UpdatedAt = now
	return nil
}

func (r *fakeGiftRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, item := range r.gifts {
		if (item.Status == entity.GiftStatusSent || item.Status == entity.GiftStatusVerified) && now.After(item.ExpiresAt) {
			item.Status = entity.GiftStatusExpired
			item.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (r *fakeGiftRepo) ListStalePendingPayment(_ context.Context, before time.Time, limit int32) ([]*entity.Gift, error) {
	items := make([]*entity.Gift, 0)
	for _, item := range r.gifts {
		if item.Status == entity.GiftStatusPendingPayment && item.CreatedAt.Before(before) {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (r *fakeGiftRepo) ListBySenderEmail(_ context.Context, email string) ([]*entity.Gift, error) {
	items := make([]*entity.Gift, 0)
	for _, item := range r.gifts {
		if item.SenderEmail == email {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

func (r *fakeGiftRepo) ListByRecipientEmail(_ context.Context, email string) ([]*entity.Gift, error) {
	items := make([]*entity.Gift, 0)
	for _, item := range r.gifts {
		if item.RecipientEmail == email {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

type fakeEmailRepo struct {
	records []*entity.GiftEmailRecord
}

func (r *fakeEmailRepo) Create(_ context.Context, record *entity.GiftEmailRecord) error {
	copyItem := *record
	r.records = append(r.records, &copyItem)
	return nil
}

type fakeProductRepo struct {
	products map[int64]*entity.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, id int64) (*entity.Product, error) {
	item, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copyItem := *item
	return &copyItem, nil
}

type fakeNotifier struct {
	giftSends  []*notify.GiftNotification
	claimSends []*notify.ClaimConfirmation
	sendErr    error
}

func (n *fakeNotifier) SendGiftNotification(_ context.Context, msg *notify.GiftNotification) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.giftSends = append(n.giftSends, msg)
	return nil
}

func (n *fakeNotifier) SendClaimConfirmation(_ context.Context, msg *notify.ClaimConfirmation) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.claimSends = append(n.claimSends, msg)
	return nil
}

type fakeGateway struct {
	name         string
	createOutput *gateway.CreateOutput
	createErr    error
	status       *gateway.StatusResult
	statusErr    error
	event        *gateway.InboundEvent
	verifyErr    error
	cancelErr    error
	refundRef    string
	refundErr    error
}

func (g *fakeGateway) Name() string {
	if g.name != "" {
		return g.name
	}
	return "payos"
}

func (g *fakeGateway) CreatePayment(context.Context, *gateway.CreateInput) (*gateway.CreateOutput, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.createOutput != nil {
		return g.createOutput, nil
	}
	return &gateway.CreateOutput{CheckoutURL: "https://pay.example/checkout/abc"}, nil
}

func (g *fakeGateway) GetStatus(context.Context, int64) (*gateway.StatusResult, error) {
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if g.status != nil {
		return g.status, nil
	}
	return &gateway.StatusResult{Status: entity.TransactionStatusPending}, nil
}

func (g *fakeGateway) Cancel(context.Context, int64, string) error {
	return g.cancelErr
}

func (g *fakeGateway) Refund(context.Context, int64, string, int64, string) (string, error) {
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return g.refundRef, nil
}

func (g *fakeGateway) VerifyInbound(context.Context, []byte) (*gateway.InboundEvent, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

func newGiftServiceForTest(giftRepo *fakeGiftRepo, orderRepo *fakeOrderRepo, products *fakeProductRepo, g gateway.Gateway, notifier *fakeNotifier) (*GiftService, *fakeEmailRepo) {
	svc, emailRepo, _ := newGiftServiceWithAuditForTest(giftRepo, orderRepo, products, g, notifier)
	return svc, emailRepo
}

func newGiftServiceWithAuditForTest(giftRepo *fakeGiftRepo, orderRepo *fakeOrderRepo, products *fakeProductRepo, g gateway.Gateway, notifier *fakeNotifier) (*GiftService, *fakeEmailRepo, *fakeTxRepo) {
	emailRepo := &fakeEmailRepo{}
	txRepo := &fakeTxRepo{}
	svc := NewGiftService(
		giftRepo,
		emailRepo,
		products,
		txRepo,
		NewOrderService(orderRepo),
		gateway.NewRegistry(g),
		notifier,
		config.GiftConfig{ExpiryDays: 7, VerifyMaxAttempts: 5},
		config.PaymentsConfig{Currency: "VND", ReconcileStaleAfter: time.Minute, JobBatchSize: 10},
		config.AppConfig{ServiceName: "checkout-test", FrontendURL: "https://shop.example"},
		logrus.New(),
	)
	return svc, emailRepo, txRepo
}

func newPaymentServiceForTest(orderRepo *fakeOrderRepo, txRepo *fakeTxRepo, settler giftSettler, g gateway.Gateway) *PaymentService {
	return NewPaymentService(
		gateway.NewRegistry(g),
		orderRepo,
		txRepo,
		settler,
		config.PaymentsConfig{Currency: "VND", ReconcileStaleAfter: time.Minute, JobBatchSize: 100},
	)
}

func TestCreatePaymentUnsupportedGateway(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{})

	_, err := svc.CreatePayment(context.Background(), &types.CreatePaymentRequest{
		Gateway:     "paypal",
		Amount:      100000,
		Description: "order",
		ReturnUrl:   "https://shop.example/return",
		CancelUrl:   "https://shop.example/cancel",
	})
	if !errors.Is(err, ErrGatewayUnsupported) {
		t.Fatalf("expected ErrGatewayUnsupported, got %v", err)
	}
}

func TestCreatePaymentReturnsCheckoutURL(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{
		createOutput: &gateway.CreateOutput{CheckoutURL: "https://pay.example/checkout/xyz", GatewayPaymentID: "link-1"},
	})

	resp, err := svc.CreatePayment(context.Background(), &types.CreatePaymentRequest{
		Gateway:     "payos",
		Amount:      100000,
		Description: "order",
		ReturnUrl:   "https://shop.example/return",
		CancelUrl:   "https://shop.example/cancel",
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if resp.CheckoutUrl != "https://pay.example/checkout/xyz" {
		t.Fatalf("unexpected checkout url: %s", resp.CheckoutUrl)
	}
	if resp.OrderCode <= 0 {
		t.Fatalf("expected generated order code, got %d", resp.OrderCode)
	}
}

func TestCreatePaymentGatewayUnavailable(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{
		createErr: fmt.Errorf("%w: connect refused", gateway.ErrUnavailable),
	})

	_, err := svc.CreatePayment(context.Background(), &types.CreatePaymentRequest{
		Gateway:     "payos",
		Amount:      100000,
		Description: "order",
		ReturnUrl:   "https://shop.example/return",
		CancelUrl:   "https://shop.example/cancel",
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestCreatePaymentGatewayRejection(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{
		createErr: fmt.Errorf("%w: momo create code=41 message=Duplicated orderId.", gateway.ErrRejected),
	})

	_, err := svc.CreatePayment(context.Background(), &types.CreatePaymentRequest{
		Gateway:     "payos",
		Amount:      100000,
		Description: "order",
		ReturnUrl:   "https://shop.example/return",
		CancelUrl:   "https://shop.example/cancel",
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if errors.Is(err, ErrGatewayUnavailable) {
		t.Fatal("rejection must not map to the retryable class")
	}
}

func TestHandleWebhookRejectedSignatureMutatesNothing(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		TotalAmount:      299000,
		OrderStatus:      entity.OrderStatusPending,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		verifyErr: fmt.Errorf("%w: signature mismatch", gateway.ErrAuthentication),
	})

	_, err := svc.HandleWebhook(context.Background(), &types.WebhookRequest{Gateway: "payos", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrWebhookRejected) {
		t.Fatalf("expected ErrWebhookRejected, got %v", err)
	}
	if len(txRepo.transactions) != 0 {
		t.Fatalf("expected no audit rows on rejected webhook, got %d", len(txRepo.transactions))
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("expected order untouched, got payment status %s", order.PaymentStatus)
	}
}

func TestHandleWebhookMarksOrderPaid(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		TotalAmount:      299000,
		OrderStatus:      entity.OrderStatusPending,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		event: &gateway.InboundEvent{
			OrderCode:      orderCode,
			Amount:         299000,
			Status:         entity.TransactionStatusSuccess,
			TransactionRef: "tx-1",
			Ack:            map[string]interface{}{"success": true},
		},
	})

	event, err := svc.HandleWebhook(context.Background(), &types.WebhookRequest{Gateway: "payos", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if event.Ack == nil {
		t.Fatal("expected ack body for gateway response")
	}
	if len(txRepo.transactions) != 1 {
		t.Fatalf("expected one audit row, got %d", len(txRepo.transactions))
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("expected order paid, got %s", order.PaymentStatus)
	}
	if order.OrderStatus != entity.OrderStatusConfirmed {
		t.Fatalf("expected order confirmed, got %s", order.OrderStatus)
	}
}

func TestHandleWebhookFailureRecordsAuditOnly(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		event: &gateway.InboundEvent{
			OrderCode: orderCode,
			Amount:    299000,
			Status:    entity.TransactionStatusFailed,
		},
	})

	if _, err := svc.HandleWebhook(context.Background(), &types.WebhookRequest{Gateway: "payos", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if len(txRepo.transactions) != 1 {
		t.Fatalf("expected one audit row, got %d", len(txRepo.transactions))
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("expected order still unpaid, got %s", order.PaymentStatus)
	}
}

func TestHandleWebhookRedeliveryKeepsOrderPaid(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		TotalAmount:      299000,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		event: &gateway.InboundEvent{
			OrderCode: orderCode,
			Amount:    299000,
			Status:    entity.TransactionStatusSuccess,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := svc.HandleWebhook(context.Background(), &types.WebhookRequest{Gateway: "payos", Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	if len(txRepo.transactions) != 2 {
		t.Fatalf("expected two audit rows for two deliveries, got %d", len(txRepo.transactions))
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("expected order paid, got %s", order.PaymentStatus)
	}
}

func TestVerifyReturnSettlesPaidOrder(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		TotalAmount:      299000,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		status: &gateway.StatusResult{Status: entity.TransactionStatusSuccess, Amount: 299000, TransactionRef: "tx-1"},
	})

	resp, err := svc.VerifyReturn(context.Background(), &types.VerifyReturnRequest{Gateway: "payos", OrderCode: orderCode})
	if err != nil {
		t.Fatalf("verify return failed: %v", err)
	}
	if resp.Status != entity.TransactionStatusSuccess {
		t.Fatalf("unexpected status: %s", resp.Status)
	}
	if resp.OrderNumber != "GT20260101-AAAA0001" {
		t.Fatalf("unexpected order number: %s", resp.OrderNumber)
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("expected order paid, got %s", order.PaymentStatus)
	}
	if len(txRepo.transactions) != 1 {
		t.Fatalf("expected one audit row for the return poll, got %d", len(txRepo.transactions))
	}
	if txRepo.transactions[0].OrderCode != orderCode || txRepo.transactions[0].Status != entity.TransactionStatusSuccess {
		t.Fatalf("unexpected audit row: %+v", txRepo.transactions[0])
	}
}

func TestVerifyReturnRecordsAuditRowWhenUnpaid(t *testing.T) {
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(newFakeOrderRepo(), txRepo, nil, &fakeGateway{
		status: &gateway.StatusResult{Status: entity.TransactionStatusPending},
	})

	resp, err := svc.VerifyReturn(context.Background(), &types.VerifyReturnRequest{Gateway: "payos", OrderCode: 17})
	if err != nil {
		t.Fatalf("verify return failed: %v", err)
	}
	if resp.Status != entity.TransactionStatusPending {
		t.Fatalf("unexpected status: %s", resp.Status)
	}
	if len(txRepo.transactions) != 1 {
		t.Fatalf("expected one audit row for the return poll, got %d", len(txRepo.transactions))
	}
}

func TestHandleWebhookAmountMismatchLeavesOrderUnpaid(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderCode := int64(1700000000123001)
	orderRepo.orders["GT20260101-AAAA0001"] = &entity.Order{
		ID:               1,
		OrderNumber:      "GT20260101-AAAA0001",
		PaymentOrderCode: &orderCode,
		TotalAmount:      500000,
		OrderStatus:      entity.OrderStatusPending,
		PaymentStatus:    entity.PaymentStatusUnpaid,
	}
	txRepo := &fakeTxRepo{}
	svc := newPaymentServiceForTest(orderRepo, txRepo, nil, &fakeGateway{
		event: &gateway.InboundEvent{
			OrderCode: orderCode,
			Amount:    299000,
			Status:    entity.TransactionStatusSuccess,
		},
	})

	_, err := svc.HandleWebhook(context.Background(), &types.WebhookRequest{Gateway: "payos", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if len(txRepo.transactions) != 1 {
		t.Fatalf("expected the delivery still audited, got %d rows", len(txRepo.transactions))
	}
	order, _ := orderRepo.FindByOrderNumber(context.Background(), "GT20260101-AAAA0001")
	if order.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("expected order still unpaid, got %s", order.PaymentStatus)
	}
}

func TestCancelPaymentOperationNotSupported(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{
		name:      "momo",
		cancelErr: fmt.Errorf("%w: momo has no cancel", gateway.ErrOperationNotSupported),
	})

	err := svc.CancelPayment(context.Background(), &types.CancelPaymentRequest{Gateway: "momo", OrderCode: 1})
	if !errors.Is(err, ErrOperationNotSupported) {
		t.Fatalf("expected ErrOperationNotSupported, got %v", err)
	}
}

func TestConfirmWebhookUnsupportedGateway(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{})

	_, err := svc.ConfirmWebhook(context.Background(), "payos", &types.ConfirmWebhookRequest{WebhookUrl: "https://shop.example/hook"})
	if !errors.Is(err, ErrOperationNotSupported) {
		t.Fatalf("expected ErrOperationNotSupported, got %v", err)
	}
}

func TestRefundPaymentReturnsRef(t *testing.T) {
	svc := newPaymentServiceForTest(newFakeOrderRepo(), &fakeTxRepo{}, nil, &fakeGateway{
		name:      "momo",
		refundRef: "refund-9",
	})

	resp, err := svc.RefundPayment(context.Background(), &types.RefundPaymentRequest{
		Gateway:        "momo",
		OrderCode:      1,
		TransactionRef: "tx-1",
		Amount:         299000,
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if resp.TransactionRef != "refund-9" {
		t.Fatalf("unexpected refund ref: %s", resp.TransactionRef)
	}
}

func TestNewOrderCodeMonotonicBase(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	code := NewOrderCode(now)
	base := now.UnixMilli() * 1000
	if code < base || code >= base+1000 {
		t.Fatalf("order code %d outside expected window [%d, %d)", code, base, base+1000)
	}
}
