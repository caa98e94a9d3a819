package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/stretchr/testify/mock"
)

type CartService struct {
	mock.Mock
}

func (m *CartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *CartService) GetCartItems(ctx context.Context, userID int64) (*models.CartView, error) {
	args := m.Called(ctx, userID)
	if view := args.Get(0); view != nil {
		return view.(*models.CartView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CartService) UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *CartService) DeleteCartItem(ctx context.Context, userID, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *CartService) GetCartItemCount(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *CartService) ClearCart(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type CatalogGateway struct {
	mock.Mock
}

func (m *CatalogGateway) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if product := args.Get(0); product != nil {
		return product.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogGateway) GetImageURLs(ctx context.Context, productID int64) ([]string, error) {
	args := m.Called(ctx, productID)
	if urls := args.Get(0); urls != nil {
		return urls.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type UserDirectory struct {
	mock.Mock
}

func (m *UserDirectory) ResolveUser(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UserDirectory) UserExists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectory) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, event models.CartEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
