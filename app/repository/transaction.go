package repository

import (
	"context"
	"database/sql"

	"github.com/goattech/ms-go-checkout/app/entity"
)

// TransactionRepository is append-only; settlement rows are never
// updated or deleted, redeliveries simply add another row.
type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entity.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			order_code, order_number, gateway, transaction_ref,
			amount, currency, status, payment_date, raw_response, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.OrderCode,
		nullableStringValue(tx.OrderNumber),
		tx.Gateway,
		tx.TransactionRef,
		tx.Amount,
		tx.Currency,
		tx.Status,
		tx.PaymentDate,
		tx.RawResponse,
		tx.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) ListByOrderCode(ctx context.Context, orderCode int64) ([]*entity.PaymentTransaction, error) {
	query := `
		SELECT id, order_code, order_number, gateway, transaction_ref,
			amount, currency, status, payment_date, raw_response, created_at
		FROM payment_transactions
		WHERE order_code = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.PaymentTransaction, 0)
	for rows.Next() {
		item := &entity.PaymentTransaction{}
		var orderNumber sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.OrderCode,
			&orderNumber,
			&item.Gateway,
			&item.TransactionRef,
			&item.Amount,
			&item.Currency,
			&item.Status,
			&item.PaymentDate,
			&item.RawResponse,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.OrderNumber = stringPtrFromNull(orderNumber)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
