package service

import (
	"context"
	"errors"
	"fmt"

	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	repository "github.com/aaravmahajanofficial/sales-savvy/internal/repositories"
)

// UserDirectory answers identity questions for the cart: who a username is
// and whether a user id exists.
type UserDirectory interface {
	ResolveUser(ctx context.Context, username string) (int64, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type userDirectory struct {
	repo repository.UserRepository
}

func NewUserDirectory(repo repository.UserRepository) UserDirectory {
	return &userDirectory{repo: repo}
}

func (d *userDirectory) ResolveUser(ctx context.Context, username string) (int64, error) {

	user, err := d.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, appErrors.NotFoundError("User not found").WithDetail(fmt.Sprintf("username: %s", username)).WithError(err)
		}
		return 0, appErrors.DatabaseError("Failed to resolve user").WithError(err)
	}

	return user.ID, nil
}

func (d *userDirectory) UserExists(ctx context.Context, userID int64) (bool, error) {

	exists, err := d.repo.ExistsByID(ctx, userID)
	if err != nil {
		return false, appErrors.DatabaseError("Failed to look up user").WithError(err)
	}

	return exists, nil
}

func (d *userDirectory) GetUser(ctx context.Context, userID int64) (*models.User, error) {

	user, err := d.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound(userID).WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch user").WithError(err)
	}

	return user, nil
}

func userNotFound(userID int64) *appErrors.AppError {
	return appErrors.NotFoundError("User not found").WithDetail(fmt.Sprintf("userId: %d", userID))
}
