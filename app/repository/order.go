package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order already exists")
)

const orderColumns = `id, order_number, customer_id, payment_order_code,
		subtotal, shipping_fee, discount, total_amount,
		order_status, payment_status, payment_method,
		shipping_full_name, shipping_phone, shipping_address, customer_note,
		created_at, updated_at`

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order header. Unique indexes on order_number and
// payment_order_code surface duplicates as ErrOrderAlreadyExists so the
// materializer can treat redelivery as "fetch existing".
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (
			order_number, customer_id, payment_order_code,
			subtotal, shipping_fee, discount, total_amount,
			order_status, payment_status, payment_method,
			shipping_full_name, shipping_phone, shipping_address, customer_note,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		order.OrderNumber,
		nullableStringValue(order.CustomerID),
		nullableInt64Value(order.PaymentOrderCode),
		order.Subtotal,
		order.ShippingFee,
		order.Discount,
		order.TotalAmount,
		order.OrderStatus,
		order.PaymentStatus,
		order.PaymentMethod,
		order.ShippingFullName,
		order.ShippingPhone,
		order.ShippingAddress,
		order.CustomerNote,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrOrderAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)
	return nil
}

func (r *OrderRepository) CreateItem(ctx context.Context, item *entity.OrderItem) error {
	query := `
		INSERT INTO order_items (
			order_id, product_id, product_name, sku,
			quantity, unit_price, discount, total_price
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		item.OrderID,
		item.ProductID,
		item.ProductName,
		item.SKU,
		item.Quantity,
		item.UnitPrice,
		item.Discount,
		item.TotalPrice,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = uint64(id)
	return nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = ? LIMIT 1`

	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) FindByPaymentOrderCode(ctx context.Context, orderCode int64) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_order_code = ? LIMIT 1`

	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, orderCode), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID uint64) ([]*entity.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, sku,
			quantity, unit_price, discount, total_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.OrderItem, 0)
	for rows.Next() {
		item := &entity.OrderItem{}
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.SKU,
			&item.Quantity,
			&item.UnitPrice,
			&item.Discount,
			&item.TotalPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// MarkPaid advances payment_status to paid without ever regressing it:
// the guard only matches unpaid/failed rows, so a second delivery is a
// no-op and paid never flips back.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderNumber, orderStatus string, now time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = ?, order_status = ?, updated_at = ?
		WHERE order_number = ?
		  AND payment_status IN (?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.PaymentStatusPaid,
		orderStatus,
		now,
		orderNumber,
		entity.PaymentStatusUnpaid,
		entity.PaymentStatusFailed,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkPaymentFailed records a definitive failure, but only from unpaid.
func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, orderNumber string, now time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = ?, updated_at = ?
		WHERE order_number = ?
		  AND payment_status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.PaymentStatusFailed,
		now,
		orderNumber,
		entity.PaymentStatusUnpaid,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanOrder(scan rowScanner, order *entity.Order) error {
	var customerID sql.NullString
	var paymentOrderCode sql.NullInt64

	err := scan.Scan(
		&order.ID,
		&order.OrderNumber,
		&customerID,
		&paymentOrderCode,
		&order.Subtotal,
		&order.ShippingFee,
		&order.Discount,
		&order.TotalAmount,
		&order.OrderStatus,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.ShippingFullName,
		&order.ShippingPhone,
		&order.ShippingAddress,
		&order.CustomerNote,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	order.CustomerID = stringPtrFromNull(customerID)
	order.PaymentOrderCode = int64PtrFromNull(paymentOrderCode)
	return nil
}
