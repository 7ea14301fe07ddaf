package repository

import (
	"context"
	"database/sql"

	"github.com/goattech/ms-go-checkout/app/entity"
)

// GiftEmailRepository is an append-only audit of notification attempts.
type GiftEmailRepository struct {
	db DBTX
}

func NewGiftEmailRepository(db DBTX) *GiftEmailRepository {
	return &GiftEmailRepository{db: db}
}

func (r *GiftEmailRepository) Create(ctx context.Context, record *entity.GiftEmailRecord) error {
	query := `
		INSERT INTO gift_emails (gift_id, email_type, sent_to, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.GiftID,
		record.EmailType,
		record.SentTo,
		record.Status,
		nullableStringValue(record.Error),
		record.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	record.ID = uint64(id)
	return nil
}

func (r *GiftEmailRepository) ListByGiftID(ctx context.Context, giftID string) ([]*entity.GiftEmailRecord, error) {
	query := `
		SELECT id, gift_id, email_type, sent_to, status, error, created_at
		FROM gift_emails
		WHERE gift_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, giftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.GiftEmailRecord, 0)
	for rows.Next() {
		record := &entity.GiftEmailRecord{}
		var errText sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.GiftID,
			&record.EmailType,
			&record.SentTo,
			&record.Status,
			&errText,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.Error = stringPtrFromNull(errText)
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
