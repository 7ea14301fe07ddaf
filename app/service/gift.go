package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
	"github.com/goattech/ms-go-checkout/app/gateway"
	"github.com/goattech/ms-go-checkout/app/notify"
	"github.com/goattech/ms-go-checkout/app/repository"
	"github.com/goattech/ms-go-checkout/app/types"
	"github.com/goattech/ms-go-checkout/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// giftGatewayName pins gift payments to the gateway whose hosted
// checkout the storefront embeds for the gifting flow.
const giftGatewayName = "payos"

const defaultVerifyMaxAttempts = int32(5)

type giftRepository interface {
	Create(ctx context.Context, gift *entity.Gift) error
	FindByGiftID(ctx context.Context, giftID string) (*entity.Gift, error)
	FindByPaymentOrderCode(ctx context.Context, orderCode int64) (*entity.Gift, error)
	UpdateStatusFrom(ctx context.Context, giftID, fromStatus, toStatus string, now time.Time) (bool, error)
	IncrementVerifyAttempts(ctx context.Context, giftID string, now time.Time) (int32, error)
	SetOrderNumber(ctx context.Context, giftID, orderNumber string, now time.Time) error
	SetClaimOrderNumber(ctx context.Context, giftID, claimOrderNumber string, now time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	ListStalePendingPayment(ctx context.Context, before time.Time, limit int32) ([]*entity.Gift, error)
	ListBySenderEmail(ctx context.Context, email string) ([]*entity.Gift, error)
	ListByRecipientEmail(ctx context.Context, email string) ([]*entity.Gift, error)
}

type giftEmailRepository interface {
	Create(ctx context.Context, record *entity.GiftEmailRecord) error
}

type productRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
}

// GiftService owns the gift state machine:
// pending_payment -> sent -> verified -> claimed, with expired reachable
// from every non-terminal state. All transitions go through the
// repository compare-and-set, so concurrent settles, verifies, and
// claims resolve to exactly one winner.
type GiftService struct {
	giftRepo    giftRepository
	emailRepo   giftEmailRepository
	products    productRepository
	txRepo      transactionRepository
	orders      *OrderService
	gateways    *gateway.Registry
	notifier    notify.Notifier
	giftCfg     config.GiftConfig
	paymentsCfg config.PaymentsConfig
	appCfg      config.AppConfig
	logger      logrus.FieldLogger
}

func NewGiftService(
	giftRepo giftRepository,
	emailRepo giftEmailRepository,
	products productRepository,
	txRepo transactionRepository,
	orders *OrderService,
	gateways *gateway.Registry,
	notifier notify.Notifier,
	giftCfg config.GiftConfig,
	paymentsCfg config.PaymentsConfig,
	appCfg config.AppConfig,
	logger logrus.FieldLogger,
) *GiftService {
	return &GiftService{
		giftRepo:    giftRepo,
		emailRepo:   emailRepo,
		products:    products,
		txRepo:      txRepo,
		orders:      orders,
		gateways:    gateways,
		notifier:    notifier,
		giftCfg:     giftCfg,
		paymentsCfg: paymentsCfg,
		appCfg:      appCfg,
		logger:      logger,
	}
}

// CreateGiftPayment snapshots the product, persists the draft gift, and
// opens a hosted checkout for the sender. The gift stays pending_payment
// until a verified settlement arrives.
func (s *GiftService) CreateGiftPayment(ctx context.Context, req *types.CreateGiftPaymentRequest) (*types.GiftPaymentResponse, error) {
	product, err := s.products.FindByID(ctx, req.ProductId)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	code, err := newVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	unitPrice := product.EffectivePrice()
	gift := &entity.Gift{
		SenderName:       req.SenderName,
		SenderEmail:      req.SenderEmail,
		SenderMessage:    req.SenderMessage,
		RecipientName:    req.RecipientName,
		RecipientEmail:   req.RecipientEmail,
		RecipientPhone:   req.RecipientPhone,
		ProductID:        product.ID,
		ProductName:      product.Name,
		ProductSKU:       product.SKU,
		UnitPrice:        unitPrice,
		Quantity:         req.Quantity,
		VerificationCode: code,
		Status:           entity.GiftStatusPendingPayment,
		ExpiresAt:        now.AddDate(0, 0, s.expiryDays()),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.SenderId != "" {
		senderID := req.SenderId
		gift.SenderID = &senderID
	}

	// One retry on an order code or gift id collision; both carry
	// unique indexes.
	for attempt := 0; ; attempt++ {
		gift.GiftID = newGiftID()
		gift.PaymentOrderCode = NewOrderCode(time.Now())
		err = s.giftRepo.Create(ctx, gift)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrGiftAlreadyExists) && attempt == 0 {
			continue
		}
		return nil, err
	}

	g, err := s.gateways.Get(giftGatewayName)
	if err != nil {
		return nil, ErrGatewayUnsupported
	}

	total := unitPrice * int64(req.Quantity)
	output, err := g.CreatePayment(ctx, &gateway.CreateInput{
		OrderCode:   gift.PaymentOrderCode,
		Amount:      total,
		Description: fmt.Sprintf("Gift %s", gift.GiftID[:8]),
		BuyerName:   req.SenderName,
		BuyerEmail:  req.SenderEmail,
		Items: []gateway.LineItem{{
			Name:     product.Name,
			Quantity: req.Quantity,
			Price:    unitPrice,
		}},
		ReturnURL: req.ReturnUrl,
		CancelURL: req.CancelUrl,
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}

	return &types.GiftPaymentResponse{
		GiftId:      gift.GiftID,
		OrderCode:   gift.PaymentOrderCode,
		CheckoutUrl: output.CheckoutURL,
		ExpiresAt:   gift.ExpiresAt,
	}, nil
}

// VerifyGiftPayment reconciles the sender's payment against the gateway
// after the return redirect. A confirmed payment advances the gift the
// same way a webhook would.
func (s *GiftService) VerifyGiftPayment(ctx context.Context, req *types.VerifyGiftPaymentRequest) (*entity.Gift, error) {
	gift, err := s.giftRepo.FindByPaymentOrderCode(ctx, req.OrderCode)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}

	if gift.Status == entity.GiftStatusPendingPayment {
		g, err := s.gateways.Get(giftGatewayName)
		if err != nil {
			return nil, ErrGatewayUnsupported
		}
		result, err := g.GetStatus(ctx, req.OrderCode)
		if err != nil {
			return nil, mapGatewayError(err)
		}
		if err := s.auditSettlement(ctx, req.OrderCode, result); err != nil {
			return nil, err
		}
		if result.Status == entity.TransactionStatusSuccess {
			if err := s.settlePaid(ctx, gift, result.Amount, result.TransactionRef); err != nil {
				return nil, err
			}
		}
	}

	return s.reload(ctx, gift.GiftID)
}

// SettlePaidOrderCode is the settle-path hook: if the order code belongs
// to a gift, advance it and report handled.
func (s *GiftService) SettlePaidOrderCode(ctx context.Context, orderCode, amount int64, transactionRef string) (bool, error) {
	gift, err := s.giftRepo.FindByPaymentOrderCode(ctx, orderCode)
	if err != nil {
		return false, err
	}
	if gift == nil {
		return false, nil
	}
	return true, s.settlePaid(ctx, gift, amount, transactionRef)
}

// auditSettlement appends one transaction row for a polled settlement
// result, mirroring what the webhook branch records per delivery.
func (s *GiftService) auditSettlement(ctx context.Context, orderCode int64, result *gateway.StatusResult) error {
	now := time.Now().UTC()
	return s.txRepo.Create(ctx, &entity.PaymentTransaction{
		OrderCode:      orderCode,
		Gateway:        giftGatewayName,
		TransactionRef: result.TransactionRef,
		Amount:         result.Amount,
		Currency:       settlementCurrency(s.paymentsCfg),
		Status:         result.Status,
		PaymentDate:    now,
		RawResponse:    result.Raw,
		CreatedAt:      now,
	})
}

// settlePaid materializes the sender's order and moves the gift to sent.
// Safe under redelivery: the order is keyed by the payment order code
// and the status transition is a compare-and-set, so the second delivery
// finds everything already done.
func (s *GiftService) settlePaid(ctx context.Context, gift *entity.Gift, amount int64, transactionRef string) error {
	if gift.Status != entity.GiftStatusPendingPayment {
		return nil
	}

	expected := gift.UnitPrice * int64(gift.Quantity)
	if amount != expected {
		return fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, amount, expected)
	}

	now := time.Now().UTC()
	order, err := s.orders.MaterializeGiftOrder(ctx, gift, now)
	if err != nil {
		return err
	}
	if err := s.giftRepo.SetOrderNumber(ctx, gift.GiftID, order.OrderNumber, now); err != nil {
		return err
	}

	moved, err := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, entity.GiftStatusPendingPayment, entity.GiftStatusSent, now)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	s.notifyGift(ctx, gift)
	return nil
}

// VerifyCode checks the recipient's one-time code. Attempts are bounded;
// exhausting them expires the gift so the code cannot be brute forced.
func (s *GiftService) VerifyCode(ctx context.Context, req *types.VerifyGiftCodeRequest) (*entity.Gift, error) {
	gift, err := s.loadLive(ctx, req.GiftId)
	if err != nil {
		return nil, err
	}

	switch gift.Status {
	case entity.GiftStatusSent:
	case entity.GiftStatusPendingPayment:
		return nil, ErrInvalidStatus
	case entity.GiftStatusVerified:
		return gift, nil
	default:
		return nil, ErrTerminalState
	}

	if subtle.ConstantTimeCompare([]byte(gift.VerificationCode), []byte(req.Code)) != 1 {
		now := time.Now().UTC()
		attempts, err := s.giftRepo.IncrementVerifyAttempts(ctx, gift.GiftID, now)
		if err != nil {
			return nil, err
		}
		if attempts >= s.verifyMaxAttempts() {
			if _, err := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, entity.GiftStatusSent, entity.GiftStatusExpired, now); err != nil {
				return nil, err
			}
			return nil, ErrGiftExpired
		}
		return nil, ErrVerificationFailed
	}

	// Losing this race is fine; the reloaded row carries whatever won.
	if _, err := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, entity.GiftStatusSent, entity.GiftStatusVerified, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.reload(ctx, gift.GiftID)
}

// Claim turns a verified gift into a zero-priced shipment order for the
// recipient. The verified->claimed compare-and-set guarantees at most
// one claim order per gift.
func (s *GiftService) Claim(ctx context.Context, req *types.ClaimGiftRequest) (*types.ClaimGiftResponse, error) {
	gift, err := s.loadLive(ctx, req.GiftId)
	if err != nil {
		return nil, err
	}

	switch gift.Status {
	case entity.GiftStatusVerified:
	case entity.GiftStatusPendingPayment, entity.GiftStatusSent:
		return nil, ErrInvalidStatus
	default:
		return nil, ErrTerminalState
	}

	now := time.Now().UTC()
	moved, err := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, entity.GiftStatusVerified, entity.GiftStatusClaimed, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrTerminalState
	}

	order, err := s.orders.MaterializeClaimOrder(ctx, gift, req.RecipientPhone, req.RecipientAddress, now)
	if err != nil {
		// Give the claim back rather than stranding a claimed gift with
		// no shipment order.
		if _, revertErr := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, entity.GiftStatusClaimed, entity.GiftStatusVerified, now); revertErr != nil {
			s.logger.WithError(revertErr).WithField("gift_id", gift.GiftID).Error("Failed to revert claim after order error")
		}
		return nil, err
	}

	if err := s.giftRepo.SetClaimOrderNumber(ctx, gift.GiftID, order.OrderNumber, now); err != nil {
		return nil, err
	}

	s.notifyClaim(ctx, gift, order.OrderNumber)

	return &types.ClaimGiftResponse{
		GiftId:           gift.GiftID,
		Status:           entity.GiftStatusClaimed,
		ClaimOrderNumber: order.OrderNumber,
	}, nil
}

// GetGiftInfo is the public preview; the response layer strips the
// verification code.
func (s *GiftService) GetGiftInfo(ctx context.Context, giftID string) (*entity.Gift, error) {
	return s.loadLive(ctx, giftID)
}

func (s *GiftService) ListSent(ctx context.Context, senderEmail string) ([]*entity.Gift, error) {
	return s.giftRepo.ListBySenderEmail(ctx, senderEmail)
}

func (s *GiftService) ListReceived(ctx context.Context, recipientEmail string) ([]*entity.Gift, error) {
	return s.giftRepo.ListByRecipientEmail(ctx, recipientEmail)
}

// loadLive fetches a gift and applies lazy expiry: an overdue sent or
// verified gift flips to expired on read.
func (s *GiftService) loadLive(ctx context.Context, giftID string) (*entity.Gift, error) {
	gift, err := s.giftRepo.FindByGiftID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}

	now := time.Now().UTC()
	if !gift.Terminal() && gift.Status != entity.GiftStatusPendingPayment && gift.ExpiredBy(now) {
		if _, err := s.giftRepo.UpdateStatusFrom(ctx, gift.GiftID, gift.Status, entity.GiftStatusExpired, now); err != nil {
			return nil, err
		}
		gift.Status = entity.GiftStatusExpired
	}
	return gift, nil
}

func (s *GiftService) reload(ctx context.Context, giftID string) (*entity.Gift, error) {
	gift, err := s.giftRepo.FindByGiftID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	return gift, nil
}

func (s *GiftService) notifyGift(ctx context.Context, gift *entity.Gift) {
	msg := &notify.GiftNotification{
		GiftID:           gift.GiftID,
		RecipientName:    gift.RecipientName,
		RecipientEmail:   gift.RecipientEmail,
		SenderName:       gift.SenderName,
		SenderMessage:    gift.SenderMessage,
		ProductName:      gift.ProductName,
		VerificationCode: gift.VerificationCode,
		ClaimURL:         fmt.Sprintf("%s/gift/%s", strings.TrimRight(s.appCfg.FrontendURL, "/"), gift.GiftID),
	}

	err := s.notifier.SendGiftNotification(ctx, msg)
	s.auditEmail(ctx, gift.GiftID, notify.EmailTypeGiftNotification, gift.RecipientEmail, err)
	if err != nil {
		s.logger.WithError(err).WithField("gift_id", gift.GiftID).Error("Gift notification failed")
	}
}

func (s *GiftService) notifyClaim(ctx context.Context, gift *entity.Gift, claimOrderNumber string) {
	msg := &notify.ClaimConfirmation{
		GiftID:           gift.GiftID,
		RecipientName:    gift.RecipientName,
		RecipientEmail:   gift.RecipientEmail,
		ProductName:      gift.ProductName,
		ClaimOrderNumber: claimOrderNumber,
	}

	err := s.notifier.SendClaimConfirmation(ctx, msg)
	s.auditEmail(ctx, gift.GiftID, notify.EmailTypeClaimConfirmation, gift.RecipientEmail, err)
	if err != nil {
		s.logger.WithError(err).WithField("gift_id", gift.GiftID).Error("Claim confirmation failed")
	}
}

func (s *GiftService) auditEmail(ctx context.Context, giftID, emailType, sentTo string, sendErr error) {
	record := &entity.GiftEmailRecord{
		GiftID:    giftID,
		EmailType: emailType,
		SentTo:    sentTo,
		Status:    "sent",
		CreatedAt: time.Now().UTC(),
	}
	if sendErr != nil {
		record.Status = "failed"
		errText := sendErr.Error()
		record.Error = &errText
	}
	if err := s.emailRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithField("gift_id", giftID).Error("Failed to record gift email")
	}
}

func (s *GiftService) expiryDays() int {
	if s.giftCfg.ExpiryDays > 0 {
		return s.giftCfg.ExpiryDays
	}
	return 7
}

func (s *GiftService) verifyMaxAttempts() int32 {
	if s.giftCfg.VerifyMaxAttempts > 0 {
		return s.giftCfg.VerifyMaxAttempts
	}
	return defaultVerifyMaxAttempts
}

func newGiftID() string {
	return uuid.NewString()
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
