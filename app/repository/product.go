package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goattech/ms-go-checkout/app/entity"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository reads the shared catalog tables. This service never
// writes them.
type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `
		SELECT id, name, sku, price, sale_price, image_url
		FROM products
		WHERE id = ?
		LIMIT 1
	`

	product := &entity.Product{}
	var salePrice sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Price,
		&salePrice,
		&product.ImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	product.SalePrice = int64PtrFromNull(salePrice)
	return product, nil
}
