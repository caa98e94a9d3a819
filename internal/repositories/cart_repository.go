package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils"
)

type CartRepository interface {
	FindByUserAndProduct(ctx context.Context, userID, productID int64) (*models.CartLine, error)
	FindWithProductsByUser(ctx context.Context, userID int64) ([]models.CartLineDetail, error)
	Save(ctx context.Context, line *models.CartLine) error
	IncrementQuantity(ctx context.Context, lineID int64, delta int) (int, error)
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteByUserAndProduct(ctx context.Context, userID, productID int64) (int64, error)
	DeleteAllByUser(ctx context.Context, userID int64) (int64, error)
	SumQuantityByUser(ctx context.Context, userID int64) (int, error)
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT id, user_id, product_id, quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`

	line := &models.CartLine{}

	err := r.DB.QueryRowContext(dbCtx, query, userID, productID).Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying cart line: %w", err)
	}

	return line, nil
}

// FindWithProductsByUser returns the user's lines joined with their product
// columns, oldest line first.
func (r *cartRepository) FindWithProductsByUser(ctx context.Context, userID int64) ([]models.CartLineDetail, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT c.id, c.user_id, c.product_id, c.quantity, p.name, p.description, p.price FROM cart_items c JOIN products p ON p.id = c.product_id WHERE c.user_id = $1 ORDER BY c.id`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLineDetail{}

	for rows.Next() {
		var line models.CartLineDetail
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.Name, &line.Description, &line.Price); err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart lines: %w", err)
	}

	return lines, nil
}

// Save inserts a new line. A concurrent insert for the same (user, product)
// pair is merged by adding the quantities, and line carries the stored state.
func (r *cartRepository) Save(ctx context.Context, line *models.CartLine) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3) ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity RETURNING id, quantity`

	return r.DB.QueryRowContext(dbCtx, query, line.UserID, line.ProductID, line.Quantity).Scan(&line.ID, &line.Quantity)
}

func (r *cartRepository) IncrementQuantity(ctx context.Context, lineID int64, delta int) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE cart_items SET quantity = quantity + $2 WHERE id = $1 RETURNING quantity`

	var quantity int

	err := r.DB.QueryRowContext(dbCtx, query, lineID, delta).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("incrementing cart line: %w", err)
	}

	return quantity, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, lineID int64, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE cart_items SET quantity = $2 WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, lineID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart line: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *cartRepository) DeleteByUserAndProduct(ctx context.Context, userID, productID int64) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	return r.execAffected(dbCtx, query, userID, productID)
}

func (r *cartRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_items WHERE user_id = $1`

	return r.execAffected(dbCtx, query, userID)
}

func (r *cartRepository) SumQuantityByUser(ctx context.Context, userID int64) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`

	var total int

	if err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing cart quantities: %w", err)
	}

	return total, nil
}

func (r *cartRepository) execAffected(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting cart lines: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected, nil
}
