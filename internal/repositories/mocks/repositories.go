package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/stretchr/testify/mock"
)

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	args := m.Called(ctx, userID, productID)
	if line := args.Get(0); line != nil {
		return line.(*models.CartLine), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CartRepository) FindWithProductsByUser(ctx context.Context, userID int64) ([]models.CartLineDetail, error) {
	args := m.Called(ctx, userID)
	if lines := args.Get(0); lines != nil {
		return lines.([]models.CartLineDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CartRepository) Save(ctx context.Context, line *models.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *CartRepository) IncrementQuantity(ctx context.Context, lineID int64, delta int) (int, error) {
	args := m.Called(ctx, lineID, delta)
	return args.Int(0), args.Error(1)
}

func (m *CartRepository) UpdateQuantity(ctx context.Context, lineID int64, quantity int) error {
	args := m.Called(ctx, lineID, quantity)
	return args.Error(0)
}

func (m *CartRepository) DeleteByUserAndProduct(ctx context.Context, userID, productID int64) (int64, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepository) SumQuantityByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if product := args.Get(0); product != nil {
		return product.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProductRepository) ListImageURLs(ctx context.Context, productID int64) ([]string, error) {
	args := m.Called(ctx, productID)
	if urls := args.Get(0); urls != nil {
		return urls.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
