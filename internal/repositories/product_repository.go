package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils"
)

type ProductRepository interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListImageURLs(ctx context.Context, productID int64) ([]string, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `SELECT id, name, description, price FROM products WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return product, nil
}

// ListImageURLs returns the product's image URLs in insertion order.
func (r *productRepository) ListImageURLs(ctx context.Context, productID int64) ([]string, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT image_url FROM product_images WHERE product_id = $1 ORDER BY id`

	rows, err := r.DB.QueryContext(dbCtx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	urls := []string{}

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning image url: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating image urls: %w", err)
	}

	return urls, nil
}
