package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
	"github.com/goattech/ms-go-checkout/app/repository"
	"github.com/google/uuid"
)

const (
	paymentMethodGateway = "gateway"
	paymentMethodGift    = "gift_claim"
)

type orderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	CreateItem(ctx context.Context, item *entity.OrderItem) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	FindByPaymentOrderCode(ctx context.Context, orderCode int64) (*entity.Order, error)
	ListItems(ctx context.Context, orderID uint64) ([]*entity.OrderItem, error)
	MarkPaid(ctx context.Context, orderNumber, orderStatus string, now time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderNumber string, now time.Time) (bool, error)
}

// OrderService turns confirmed payments into order rows. Every entry
// point is idempotent: orders are keyed by unique payment_order_code
// and a second materialization of the same payment returns the first
// order untouched.
type OrderService struct {
	orderRepo orderRepository
}

func NewOrderService(orderRepo orderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// MaterializeGiftOrder records the sender's paid order for a settled
// gift payment. Redelivery of the same payment finds the existing row.
func (s *OrderService) MaterializeGiftOrder(ctx context.Context, gift *entity.Gift, now time.Time) (*entity.Order, error) {
	existing, err := s.orderRepo.FindByPaymentOrderCode(ctx, gift.PaymentOrderCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	total := gift.UnitPrice * int64(gift.Quantity)
	orderCode := gift.PaymentOrderCode
	order := &entity.Order{
		OrderNumber:      newOrderNumber(now),
		CustomerID:       gift.SenderID,
		PaymentOrderCode: &orderCode,
		Subtotal:         total,
		TotalAmount:      total,
		OrderStatus:      entity.OrderStatusSuccess,
		PaymentStatus:    entity.PaymentStatusPaid,
		PaymentMethod:    paymentMethodGateway,
		ShippingFullName: gift.RecipientName,
		ShippingPhone:    gift.RecipientPhone,
		ShippingAddress:  gift.RecipientAddress,
		CustomerNote:     gift.SenderMessage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderAlreadyExists) {
			return s.findExisting(ctx, gift.PaymentOrderCode)
		}
		return nil, err
	}

	item := &entity.OrderItem{
		OrderID:     order.ID,
		ProductID:   gift.ProductID,
		ProductName: gift.ProductName,
		SKU:         gift.ProductSKU,
		Quantity:    gift.Quantity,
		UnitPrice:   gift.UnitPrice,
		TotalPrice:  total,
	}
	if err := s.orderRepo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	return order, nil
}

// MaterializeClaimOrder creates the zero-priced shipment order for the
// recipient of a claimed gift.
func (s *OrderService) MaterializeClaimOrder(ctx context.Context, gift *entity.Gift, phone, address string, now time.Time) (*entity.Order, error) {
	order := &entity.Order{
		OrderNumber:      newOrderNumber(now),
		Subtotal:         0,
		TotalAmount:      0,
		OrderStatus:      entity.OrderStatusConfirmed,
		PaymentStatus:    entity.PaymentStatusPaid,
		PaymentMethod:    paymentMethodGift,
		ShippingFullName: gift.RecipientName,
		ShippingPhone:    phone,
		ShippingAddress:  address,
		CustomerNote:     fmt.Sprintf("Gift claim for %s", gift.GiftID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	item := &entity.OrderItem{
		OrderID:     order.ID,
		ProductID:   gift.ProductID,
		ProductName: gift.ProductName,
		SKU:         gift.ProductSKU,
		Quantity:    gift.Quantity,
		UnitPrice:   0,
		TotalPrice:  0,
	}
	if err := s.orderRepo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*entity.Order, []*entity.OrderItem, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}

	items, err := s.orderRepo.ListItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (s *OrderService) findExisting(ctx context.Context, orderCode int64) (*entity.Order, error) {
	existing, err := s.orderRepo.FindByPaymentOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrOrderNotFound
	}
	return existing, nil
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("GT%s-%s", now.UTC().Format("20060102"), suffix)
}
