package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
)

var (
	ErrGiftNotFound      = errors.New("gift not found")
	ErrGiftAlreadyExists = errors.New("gift already exists")
)

const giftColumns = `id, gift_id, sender_id, sender_name, sender_email, sender_message,
		recipient_name, recipient_email, recipient_phone, recipient_address,
		product_id, product_name, product_sku, unit_price, quantity,
		verification_code, verify_attempts, status, payment_order_code,
		order_number, claim_order_number, expires_at, created_at, updated_at`

type GiftRepository struct {
	db DBTX
}

func NewGiftRepository(db DBTX) *GiftRepository {
	return &GiftRepository{db: db}
}

// Create inserts a new gift. gift_id and payment_order_code carry unique
// indexes; collisions surface as ErrGiftAlreadyExists so the caller can
// regenerate and retry.
func (r *GiftRepository) Create(ctx context.Context, gift *entity.Gift) error {
	query := `
		INSERT INTO gifts (
			gift_id, sender_id, sender_name, sender_email, sender_message,
			recipient_name, recipient_email, recipient_phone, recipient_address,
			product_id, product_name, product_sku, unit_price, quantity,
			verification_code, verify_attempts, status, payment_order_code,
			expires_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		gift.GiftID,
		nullableStringValue(gift.SenderID),
		gift.SenderName,
		gift.SenderEmail,
		gift.SenderMessage,
		gift.RecipientName,
		gift.RecipientEmail,
		gift.RecipientPhone,
		gift.RecipientAddress,
		gift.ProductID,
		gift.ProductName,
		gift.ProductSKU,
		gift.UnitPrice,
		gift.Quantity,
		gift.VerificationCode,
		gift.VerifyAttempts,
		gift.Status,
		gift.PaymentOrderCode,
		gift.ExpiresAt,
		gift.CreatedAt,
		gift.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrGiftAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	gift.ID = uint64(id)
	return nil
}

func (r *GiftRepository) FindByGiftID(ctx context.Context, giftID string) (*entity.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE gift_id = ? LIMIT 1`

	gift := &entity.Gift{}
	if err := scanGift(r.db.QueryRowContext(ctx, query, giftID), gift); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return gift, nil
}

func (r *GiftRepository) FindByPaymentOrderCode(ctx context.Context, orderCode int64) (*entity.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE payment_order_code = ? LIMIT 1`

	gift := &entity.Gift{}
	if err := scanGift(r.db.QueryRowContext(ctx, query, orderCode), gift); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return gift, nil
}

// UpdateStatusFrom is the compare-and-set behind every lifecycle
// transition. The WHERE clause pins the expected current status, so of
// two racing callers exactly one sees true.
func (r *GiftRepository) UpdateStatusFrom(ctx context.Context, giftID, fromStatus, toStatus string, now time.Time) (bool, error) {
	query := `
		UPDATE gifts
		SET status = ?, updated_at = ?
		WHERE gift_id = ?
		  AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query, toStatus, now, giftID, fromStatus)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// IncrementVerifyAttempts bumps the counter and returns the new value.
func (r *GiftRepository) IncrementVerifyAttempts(ctx context.Context, giftID string, now time.Time) (int32, error) {
	query := `
		UPDATE gifts
		SET verify_attempts = verify_attempts + 1, updated_at = ?
		WHERE gift_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, now, giftID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrGiftNotFound
	}

	var attempts int32
	row := r.db.QueryRowContext(ctx, `SELECT verify_attempts FROM gifts WHERE gift_id = ? LIMIT 1`, giftID)
	if err := row.Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *GiftRepository) SetOrderNumber(ctx context.Context, giftID, orderNumber string, now time.Time) error {
	query := `
		UPDATE gifts
		SET order_number = ?, updated_at = ?
		WHERE gift_id = ?
	`

	_, err := r.db.ExecContext(ctx, query, orderNumber, now, giftID)
	return err
}

func (r *GiftRepository) SetClaimOrderNumber(ctx context.Context, giftID, claimOrderNumber string, now time.Time) error {
	query := `
		UPDATE gifts
		SET claim_order_number = ?, updated_at = ?
		WHERE gift_id = ?
	`

	_, err := r.db.ExecContext(ctx, query, claimOrderNumber, now, giftID)
	return err
}

// ExpireDue flips every overdue sent/verified gift to expired in one
// statement and reports how many rows moved.
func (r *GiftRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE gifts
		SET status = ?, updated_at = ?
		WHERE status IN (?, ?)
		  AND expires_at < ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.GiftStatusExpired,
		now,
		entity.GiftStatusSent,
		entity.GiftStatusVerified,
		now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListStalePendingPayment returns gifts still waiting on payment whose
// intent is old enough to be worth re-polling against the gateway.
func (r *GiftRepository) ListStalePendingPayment(ctx context.Context, before time.Time, limit int32) ([]*entity.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts
		WHERE status = ? AND created_at < ?
		ORDER BY id ASC
		LIMIT ?`
	return r.list(ctx, query, entity.GiftStatusPendingPayment, before, limit)
}

func (r *GiftRepository) ListBySenderEmail(ctx context.Context, email string) ([]*entity.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE sender_email = ? ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

func (r *GiftRepository) ListByRecipientEmail(ctx context.Context, email string) ([]*entity.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE recipient_email = ? ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

func (r *GiftRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Gift, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Gift, 0)
	for rows.Next() {
		gift := &entity.Gift{}
		if err := scanGift(rows, gift); err != nil {
			return nil, err
		}
		items = append(items, gift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanGift(scan rowScanner, gift *entity.Gift) error {
	var senderID sql.NullString
	var orderNumber sql.NullString
	var claimOrderNumber sql.NullString

	err := scan.Scan(
		&gift.ID,
		&gift.GiftID,
		&senderID,
		&gift.SenderName,
		&gift.SenderEmail,
		&gift.SenderMessage,
		&gift.RecipientName,
		&gift.RecipientEmail,
		&gift.RecipientPhone,
		&gift.RecipientAddress,
		&gift.ProductID,
		&gift.ProductName,
		&gift.ProductSKU,
		&gift.UnitPrice,
		&gift.Quantity,
		&gift.VerificationCode,
		&gift.VerifyAttempts,
		&gift.Status,
		&gift.PaymentOrderCode,
		&orderNumber,
		&claimOrderNumber,
		&gift.ExpiresAt,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	)
	if err != nil {
		return err
	}

	gift.SenderID = stringPtrFromNull(senderID)
	gift.OrderNumber = stringPtrFromNull(orderNumber)
	gift.ClaimOrderNumber = stringPtrFromNull(claimOrderNumber)
	return nil
}
