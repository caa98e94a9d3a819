package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT id, username, email, role, created_at FROM users WHERE id = $1`

	return r.scanUser(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT id, username, email, role, created_at FROM users WHERE username = $1`

	return r.scanUser(r.DB.QueryRowContext(dbCtx, query, username))
}

func (r *userRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool

	if err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("querying database: %w", err)
	}

	return exists, nil
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil
}
