package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	repository "github.com/aaravmahajanofficial/sales-savvy/internal/repositories"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// upper bound on concurrent image lookups for one cart listing
const imageLookupConcurrency = 8

type EventPublisher interface {
	Publish(ctx context.Context, event models.CartEvent) error
}

type CartService interface {
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	GetCartItems(ctx context.Context, userID int64) (*models.CartView, error)
	UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	DeleteCartItem(ctx context.Context, userID, productID int64) error
	GetCartItemCount(ctx context.Context, userID int64) (int, error)
	ClearCart(ctx context.Context, userID int64) (int64, error)
}

type cartService struct {
	store     repository.CartRepository
	catalog   CatalogGateway
	users     UserDirectory
	events    EventPublisher
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewCartService(store repository.CartRepository, catalog CatalogGateway, users UserDirectory, events EventPublisher) CartService {
	return &cartService{
		store:     store,
		catalog:   catalog,
		users:     users,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// AddToCart puts quantity units of the product in the user's cart, adding to
// any quantity already there.
func (s *cartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {

	if quantity <= 0 {
		return appErrors.AddValidationError("quantity", "must be greater than zero")
	}

	if quantity > models.MaxLineQuantity {
		return lineLimitExceeded()
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}

	total, err := s.addQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if _, ok := appErrors.IsAppError(err); ok {
			return err
		}
		return appErrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	s.publish(ctx, models.CartItemAdded, userID, productID, total)

	return nil
}

// addQuantity increments an existing line or inserts a new one and returns
// the resulting quantity.
func (s *cartService) addQuantity(ctx context.Context, userID, productID int64, quantity int) (int, error) {

	line, err := s.store.FindByUserAndProduct(ctx, userID, productID)

	switch {
	case err == nil:
		if line.Quantity+quantity > models.MaxLineQuantity {
			return 0, lineLimitExceeded()
		}
		total, incErr := s.store.IncrementQuantity(ctx, line.ID, quantity)
		if !errors.Is(incErr, repository.ErrNotFound) {
			return total, incErr
		}
		// removed between lookup and increment, insert it again
	case !errors.Is(err, repository.ErrNotFound):
		return 0, err
	}

	newLine := &models.CartLine{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.store.Save(ctx, newLine); err != nil {
		return 0, err
	}

	return newLine.Quantity, nil
}

func (s *cartService) GetCartItems(ctx context.Context, userID int64) (*models.CartView, error) {

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.FindWithProductsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart items").WithError(err)
	}

	images, err := s.firstImages(ctx, lines)
	if err != nil {
		return nil, err
	}

	products := make([]models.CartProduct, 0, len(lines))
	overall := decimal.Zero

	for i, line := range lines {
		lineTotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		overall = overall.Add(lineTotal)

		products = append(products, models.CartProduct{
			ProductID:    line.ProductID,
			ImageURL:     images[i],
			Name:         s.sanitizer.Sanitize(line.Name),
			Description:  s.sanitizer.Sanitize(line.Description),
			PricePerUnit: line.Price,
			Quantity:     line.Quantity,
			TotalPrice:   lineTotal,
		})
	}

	return &models.CartView{
		Username: user.Username,
		Role:     user.Role,
		Cart: models.CartContents{
			Products:          products,
			OverallTotalPrice: overall,
		},
	}, nil
}

// firstImages resolves the first image of every line's product, in line order.
func (s *cartService) firstImages(ctx context.Context, lines []models.CartLineDetail) ([]string, error) {

	images := make([]string, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageLookupConcurrency)

	for i, line := range lines {
		g.Go(func() error {
			urls, err := s.catalog.GetImageURLs(gctx, line.ProductID)
			if err != nil {
				return err
			}

			images[i] = models.DefaultImageURL
			if len(urls) > 0 {
				images[i] = urls[0]
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return images, nil
}

// UpdateCartItemQuantity overwrites the quantity of an existing line. A
// quantity of zero or less removes the line. A missing line is left alone.
func (s *cartService) UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {

	if quantity > models.MaxLineQuantity {
		return lineLimitExceeded()
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}

	line, err := s.store.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return appErrors.DatabaseError("Failed to fetch cart item").WithError(err)
	}

	if quantity <= 0 {
		// a concurrent delete already got there, which is the outcome asked for
		if err := s.DeleteCartItem(ctx, userID, productID); err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return err
		}
		return nil
	}

	if err := s.store.UpdateQuantity(ctx, line.ID, quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return appErrors.DatabaseError("Failed to update cart item").WithError(err)
	}

	s.publish(ctx, models.CartItemUpdated, userID, productID, quantity)

	return nil
}

func (s *cartService) DeleteCartItem(ctx context.Context, userID, productID int64) error {

	deleted, err := s.store.DeleteByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return appErrors.DatabaseError("Failed to delete cart item").WithError(err)
	}

	if deleted == 0 {
		return appErrors.NotFoundError(fmt.Sprintf("Cart item not found for userId: %d and productId: %d", userID, productID))
	}

	s.publish(ctx, models.CartItemRemoved, userID, productID, 0)

	return nil
}

func (s *cartService) GetCartItemCount(ctx context.Context, userID int64) (int, error) {

	count, err := s.store.SumQuantityByUser(ctx, userID)
	if err != nil {
		return 0, appErrors.DatabaseError("Failed to count cart items").WithError(err)
	}

	return count, nil
}

// ClearCart removes every line of the user and reports how many were removed.
func (s *cartService) ClearCart(ctx context.Context, userID int64) (int64, error) {

	removed, err := s.store.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	if removed > 0 {
		s.publish(ctx, models.CartCleared, userID, 0, 0)
	}

	return removed, nil
}

func lineLimitExceeded() *appErrors.AppError {
	return appErrors.AddValidationError("quantity", fmt.Sprintf("must not exceed %d per product", models.MaxLineQuantity))
}

func (s *cartService) requireUser(ctx context.Context, userID int64) error {

	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}

	if !exists {
		return userNotFound(userID)
	}

	return nil
}

// publish is best effort, the cart change is already committed.
func (s *cartService) publish(ctx context.Context, eventType models.CartEventType, userID, productID int64, quantity int) {

	event := models.CartEvent{
		Type:       eventType,
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: s.now().UTC(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to publish cart event",
			slog.String("event_type", string(eventType)),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
