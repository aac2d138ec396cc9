package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

type ProductSort string

const (
	SortDefault        ProductSort = ""
	SortPriceLowToHigh ProductSort = "priceLowToHigh"
	SortPriceHighToLow ProductSort = "priceHighToLow"
)

type ProductFilter struct {
	Category string
	Sort     ProductSort
}

type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, description, price, quantity, category, image, created_at, updated_at`

func (s *ProductStore) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	product := &models.Product{}

	err := s.db.GetContext(ctx, product,
		`INSERT INTO products (name, description, price, quantity, category, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.Quantity, p.Category, p.Image)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// UpdateProduct overwrites the editable fields. An empty image keeps the
// stored reference.
func (s *ProductStore) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	product := &models.Product{}

	err := s.db.GetContext(ctx, product,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, quantity = $4, category = $5,
		     image = COALESCE(NULLIF($6, ''), image),
		     updated_at = NOW()
		 WHERE id = $7
		 RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.Quantity, p.Category, p.Image, p.ID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (s *ProductStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func (s *ProductStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := s.db.GetContext(ctx, product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *ProductStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`

	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` WHERE category = $1`
	}

	switch filter.Sort {
	case SortPriceLowToHigh:
		query += ` ORDER BY price ASC, id ASC`
	case SortPriceHighToLow:
		query += ` ORDER BY price DESC, id ASC`
	default:
		query += ` ORDER BY created_at DESC, id DESC`
	}

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}
