package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	repository "github.com/aaravmahajanofficial/sales-savvy/internal/repositories"
	repoMocks "github.com/aaravmahajanofficial/sales-savvy/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/sales-savvy/internal/services"
	"github.com/aaravmahajanofficial/sales-savvy/internal/services/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCartStore keeps cart lines in memory with the same merge semantics as
// the SQL upsert.
type fakeCartStore struct {
	mu       sync.Mutex
	nextID   int64
	lines    map[int64]*models.CartLine
	products map[int64]*models.Product
}

func newFakeCartStore(products map[int64]*models.Product) *fakeCartStore {
	return &fakeCartStore{lines: map[int64]*models.CartLine{}, products: products}
}

func (f *fakeCartStore) find(userID, productID int64) *models.CartLine {
	for _, line := range f.lines {
		if line.UserID == userID && line.ProductID == productID {
			return line
		}
	}
	return nil
}

func (f *fakeCartStore) FindByUserAndProduct(_ context.Context, userID, productID int64) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if line := f.find(userID, productID); line != nil {
		copied := *line
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCartStore) FindWithProductsByUser(_ context.Context, userID int64) ([]models.CartLineDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	details := []models.CartLineDetail{}
	for id := int64(1); id <= f.nextID; id++ {
		line, ok := f.lines[id]
		if !ok || line.UserID != userID {
			continue
		}
		product := f.products[line.ProductID]
		details = append(details, models.CartLineDetail{
			CartLine:    *line,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
		})
	}
	return details, nil
}

func (f *fakeCartStore) Save(_ context.Context, line *models.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing := f.find(line.UserID, line.ProductID); existing != nil {
		existing.Quantity += line.Quantity
		line.ID, line.Quantity = existing.ID, existing.Quantity
		return nil
	}

	f.nextID++
	line.ID = f.nextID
	copied := *line
	f.lines[line.ID] = &copied
	return nil
}

func (f *fakeCartStore) IncrementQuantity(_ context.Context, lineID int64, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, ok := f.lines[lineID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	line.Quantity += delta
	return line.Quantity, nil
}

func (f *fakeCartStore) UpdateQuantity(_ context.Context, lineID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, ok := f.lines[lineID]
	if !ok {
		return repository.ErrNotFound
	}
	line.Quantity = quantity
	return nil
}

func (f *fakeCartStore) DeleteByUserAndProduct(_ context.Context, userID, productID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if line := f.find(userID, productID); line != nil {
		delete(f.lines, line.ID)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeCartStore) DeleteAllByUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for id, line := range f.lines {
		if line.UserID == userID {
			delete(f.lines, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeCartStore) SumQuantityByUser(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, line := range f.lines {
		if line.UserID == userID {
			total += line.Quantity
		}
	}
	return total, nil
}

type fakeCatalog struct {
	products map[int64]*models.Product
	images   map[int64][]string
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID int64) (*models.Product, error) {
	if product, ok := c.products[productID]; ok {
		return product, nil
	}
	return nil, appErrors.NotFoundError("Product not found")
}

func (c *fakeCatalog) GetImageURLs(_ context.Context, productID int64) ([]string, error) {
	return c.images[productID], nil
}

type fakeDirectory struct {
	users map[int64]*models.User
}

func (d *fakeDirectory) ResolveUser(_ context.Context, username string) (int64, error) {
	for id, user := range d.users {
		if user.Username == username {
			return id, nil
		}
	}
	return 0, appErrors.NotFoundError("User not found")
}

func (d *fakeDirectory) UserExists(_ context.Context, userID int64) (bool, error) {
	_, ok := d.users[userID]
	return ok, nil
}

func (d *fakeDirectory) GetUser(_ context.Context, userID int64) (*models.User, error) {
	if user, ok := d.users[userID]; ok {
		return user, nil
	}
	return nil, appErrors.NotFoundError("User not found")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.CartEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event models.CartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []models.CartEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.CartEventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type cartFixture struct {
	service   service.CartService
	store     *fakeCartStore
	publisher *recordingPublisher
}

func newCartFixture() *cartFixture {
	products := map[int64]*models.Product{
		10: {ID: 10, Name: "Mug", Description: "Ceramic mug", Price: decimal.RequireFromString("9.99")},
		11: {ID: 11, Name: "<b>Lamp</b>", Description: "Desk <script>alert(1)</script>lamp", Price: decimal.RequireFromString("24.50")},
		12: {ID: 12, Name: "Pen", Description: "Blue pen", Price: decimal.RequireFromString("0.10")},
	}
	catalog := &fakeCatalog{
		products: products,
		images:   map[int64][]string{10: {"https://img/mug-front.png", "https://img/mug-back.png"}},
	}
	users := &fakeDirectory{users: map[int64]*models.User{
		1: {ID: 1, Username: "alice", Role: models.RoleCustomer},
		2: {ID: 2, Username: "bob", Role: models.RoleAdmin},
	}}

	store := newFakeCartStore(products)
	publisher := &recordingPublisher{}

	return &cartFixture{
		service:   service.NewCartService(store, catalog, users, publisher),
		store:     store,
		publisher: publisher,
	}
}

func requireAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCartProperties(t *testing.T) {
	ctx := context.Background()

	t.Run("First add creates one line with the given quantity", func(t *testing.T) {
		f := newCartFixture()

		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 4))

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		require.Len(t, view.Cart.Products, 1)
		assert.Equal(t, int64(10), view.Cart.Products[0].ProductID)
		assert.Equal(t, 4, view.Cart.Products[0].Quantity)
	})

	t.Run("Repeated adds accumulate", func(t *testing.T) {
		// Arrange
		f := newCartFixture()

		// Act
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 2))
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 3))
		view, err := f.service.GetCartItems(ctx, 1)

		// Assert
		require.NoError(t, err)
		require.Len(t, view.Cart.Products, 1)

		line := view.Cart.Products[0]
		assert.Equal(t, int64(10), line.ProductID)
		assert.Equal(t, 5, line.Quantity)
		assert.Equal(t, "49.95", line.TotalPrice.String())
		assert.Equal(t, "49.95", view.Cart.OverallTotalPrice.String())
		assert.Equal(t, []models.CartEventType{models.CartItemAdded, models.CartItemAdded}, f.publisher.types())
		assert.Equal(t, 5, f.publisher.events[1].Quantity)
	})

	t.Run("Update overwrites instead of adding", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 3))
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 2))

		require.NoError(t, f.service.UpdateCartItemQuantity(ctx, 1, 10, 7))

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		require.Len(t, view.Cart.Products, 1)
		assert.Equal(t, 7, view.Cart.Products[0].Quantity)
	})

	t.Run("Update to zero removes the line", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 3))

		require.NoError(t, f.service.UpdateCartItemQuantity(ctx, 1, 10, 0))

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, view.Cart.Products)
		assert.Contains(t, f.publisher.types(), models.CartItemRemoved)
	})

	t.Run("Negative update quantity removes the line", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 3))

		require.NoError(t, f.service.UpdateCartItemQuantity(ctx, 1, 10, -2))

		count, err := f.service.GetCartItemCount(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Update on an absent line is a no-op", func(t *testing.T) {
		f := newCartFixture()

		require.NoError(t, f.service.UpdateCartItemQuantity(ctx, 1, 12, 5))
		require.NoError(t, f.service.UpdateCartItemQuantity(ctx, 1, 12, 0))

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, view.Cart.Products)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("Delete of an absent line is not found", func(t *testing.T) {
		f := newCartFixture()

		err := f.service.DeleteCartItem(ctx, 1, 10)

		requireAppErrorCode(t, err, appErrors.ErrCodeNotFound)
		assert.Equal(t, "Cart item not found for userId: 1 and productId: 10", err.Error())
	})

	t.Run("Delete removes an existing line", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 1))

		require.NoError(t, f.service.DeleteCartItem(ctx, 1, 10))

		err := f.service.DeleteCartItem(ctx, 1, 10)
		requireAppErrorCode(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("Totals are exact decimal sums", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 3))
		require.NoError(t, f.service.AddToCart(ctx, 1, 12, 3))

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		require.Len(t, view.Cart.Products, 2)
		assert.Equal(t, "29.97", view.Cart.Products[0].TotalPrice.String())
		assert.Equal(t, "0.3", view.Cart.Products[1].TotalPrice.String())
		assert.Equal(t, "30.27", view.Cart.OverallTotalPrice.String())
	})

	t.Run("Empty cart has no products and a zero total", func(t *testing.T) {
		f := newCartFixture()

		view, err := f.service.GetCartItems(ctx, 2)

		require.NoError(t, err)
		assert.Equal(t, "bob", view.Username)
		assert.Equal(t, models.RoleAdmin, view.Role)
		assert.NotNil(t, view.Cart.Products)
		assert.Empty(t, view.Cart.Products)
		assert.True(t, view.Cart.OverallTotalPrice.IsZero())
	})

	t.Run("Count sums quantities across lines", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 2))
		require.NoError(t, f.service.AddToCart(ctx, 1, 11, 3))
		require.NoError(t, f.service.AddToCart(ctx, 2, 10, 9))

		count, err := f.service.GetCartItemCount(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("View projects images, sanitized text and order", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 11, 1))
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 1))

		view, err := f.service.GetCartItems(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "alice", view.Username)
		require.Len(t, view.Cart.Products, 2)

		lamp, mug := view.Cart.Products[0], view.Cart.Products[1]
		assert.Equal(t, int64(11), lamp.ProductID)
		assert.Equal(t, models.DefaultImageURL, lamp.ImageURL)
		assert.Equal(t, "Lamp", lamp.Name)
		assert.Equal(t, "Desk lamp", lamp.Description)
		assert.Equal(t, "24.5", lamp.PricePerUnit.String())

		assert.Equal(t, int64(10), mug.ProductID)
		assert.Equal(t, "https://img/mug-front.png", mug.ImageURL)
	})

	t.Run("Clear removes every line of the user", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 2))
		require.NoError(t, f.service.AddToCart(ctx, 1, 11, 1))
		require.NoError(t, f.service.AddToCart(ctx, 2, 10, 1))

		removed, err := f.service.ClearCart(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		count, err := f.service.GetCartItemCount(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, count)

		other, err := f.service.GetCartItemCount(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, other)

		removed, err = f.service.ClearCart(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, removed)
		assert.Equal(t, 1, countType(f.publisher.types(), models.CartCleared))
	})

	t.Run("Concurrent adds never lose increments", func(t *testing.T) {
		f := newCartFixture()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.service.AddToCart(ctx, 1, 10, 1))
			}()
		}
		wg.Wait()

		view, err := f.service.GetCartItems(ctx, 1)
		require.NoError(t, err)
		require.Len(t, view.Cart.Products, 1)
		assert.Equal(t, 50, view.Cart.Products[0].Quantity)
	})
}

func countType(types []models.CartEventType, want models.CartEventType) int {
	n := 0
	for _, eventType := range types {
		if eventType == want {
			n++
		}
	}
	return n
}

func TestCartPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("Add rejects non-positive quantity", func(t *testing.T) {
		f := newCartFixture()

		for _, quantity := range []int{0, -3} {
			err := f.service.AddToCart(ctx, 1, 10, quantity)
			requireAppErrorCode(t, err, appErrors.ErrCodeValidation)
		}

		count, err := f.service.GetCartItemCount(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Quantity above the line limit is rejected", func(t *testing.T) {
		f := newCartFixture()

		requireAppErrorCode(t, f.service.AddToCart(ctx, 1, 10, models.MaxLineQuantity+1), appErrors.ErrCodeValidation)

		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 1))
		requireAppErrorCode(t, f.service.UpdateCartItemQuantity(ctx, 1, 10, models.MaxLineQuantity+1), appErrors.ErrCodeValidation)

		count, err := f.service.GetCartItemCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Add that would push a line past the limit is rejected", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.service.AddToCart(ctx, 1, 10, models.MaxLineQuantity-1))

		err := f.service.AddToCart(ctx, 1, 10, 2)
		requireAppErrorCode(t, err, appErrors.ErrCodeValidation)

		require.NoError(t, f.service.AddToCart(ctx, 1, 10, 1))
		count, err := f.service.GetCartItemCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.MaxLineQuantity, count)
	})

	t.Run("Unknown user is not found", func(t *testing.T) {
		f := newCartFixture()

		requireAppErrorCode(t, f.service.AddToCart(ctx, 99, 10, 1), appErrors.ErrCodeNotFound)
		requireAppErrorCode(t, f.service.UpdateCartItemQuantity(ctx, 99, 10, 1), appErrors.ErrCodeNotFound)

		_, err := f.service.GetCartItems(ctx, 99)
		requireAppErrorCode(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("Unknown product is not found", func(t *testing.T) {
		f := newCartFixture()

		requireAppErrorCode(t, f.service.AddToCart(ctx, 1, 404, 1), appErrors.ErrCodeNotFound)
		requireAppErrorCode(t, f.service.UpdateCartItemQuantity(ctx, 1, 404, 1), appErrors.ErrCodeNotFound)
	})
}

type cartMocks struct {
	store   *repoMocks.CartRepository
	catalog *mocks.CatalogGateway
	users   *mocks.UserDirectory
	events  *mocks.EventPublisher
}

func setupCartService() (service.CartService, *cartMocks) {
	m := &cartMocks{
		store:   new(repoMocks.CartRepository),
		catalog: new(mocks.CatalogGateway),
		users:   new(mocks.UserDirectory),
		events:  new(mocks.EventPublisher),
	}

	return service.NewCartService(m.store, m.catalog, m.users, m.events), m
}

func (m *cartMocks) assertExpectations(t *testing.T) {
	m.store.AssertExpectations(t)
	m.catalog.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	product := &models.Product{ID: 10, Name: "Mug", Price: decimal.RequireFromString("9.99")}

	t.Run("Success - Increments Existing Line", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 2}, nil).Once()
		m.store.On("IncrementQuantity", mock.Anything, int64(7), 3).Return(5, nil).Once()
		m.events.On("Publish", mock.Anything, mock.MatchedBy(func(e models.CartEvent) bool {
			return e.Type == models.CartItemAdded && e.UserID == 1 && e.ProductID == 10 && e.Quantity == 5
		})).Return(nil).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 3)

		// Assert
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("Success - Inserts When Line Vanished Before Increment", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 2}, nil).Once()
		m.store.On("IncrementQuantity", mock.Anything, int64(7), 3).Return(0, repository.ErrNotFound).Once()
		m.store.On("Save", mock.Anything, mock.MatchedBy(func(l *models.CartLine) bool {
			return l.UserID == 1 && l.ProductID == 10 && l.Quantity == 3
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, mock.AnythingOfType("models.CartEvent")).Return(nil).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 3)

		// Assert
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("Success - Publish Failure Is Not Surfaced", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(nil, repository.ErrNotFound).Once()
		m.store.On("Save", mock.Anything, mock.AnythingOfType("*models.CartLine")).Return(nil).Once()
		m.events.On("Publish", mock.Anything, mock.AnythingOfType("models.CartEvent")).Return(errors.New("broker down")).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 1)

		// Assert
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("Failure - Lookup Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		dbErr := errors.New("connection refused")
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(nil, dbErr).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 1)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
		m.assertExpectations(t)
	})

	t.Run("Failure - Save Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		dbErr := errors.New("unique violation")
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(nil, repository.ErrNotFound).Once()
		m.store.On("Save", mock.Anything, mock.AnythingOfType("*models.CartLine")).Return(dbErr).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 1)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
		m.assertExpectations(t)
	})

	t.Run("Failure - User Directory Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(false, appErrors.DatabaseError("Failed to look up user")).Once()

		// Act
		err := cartService.AddToCart(ctx, 1, 10, 1)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})
}

func TestGetCartItems(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 1, Username: "alice", Role: models.RoleCustomer}

	t.Run("Failure - Store Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("GetUser", mock.Anything, int64(1)).Return(user, nil).Once()
		m.store.On("FindWithProductsByUser", mock.Anything, int64(1)).Return(nil, errors.New("timeout")).Once()

		// Act
		view, err := cartService.GetCartItems(ctx, 1)

		// Assert
		assert.Nil(t, view)
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})

	t.Run("Failure - Image Lookup Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		lines := []models.CartLineDetail{
			{CartLine: models.CartLine{ID: 1, UserID: 1, ProductID: 10, Quantity: 1}, Name: "Mug", Price: decimal.RequireFromString("9.99")},
		}
		m.users.On("GetUser", mock.Anything, int64(1)).Return(user, nil).Once()
		m.store.On("FindWithProductsByUser", mock.Anything, int64(1)).Return(lines, nil).Once()
		m.catalog.On("GetImageURLs", mock.Anything, int64(10)).Return(nil, appErrors.DatabaseError("Failed to fetch product images")).Once()

		// Act
		view, err := cartService.GetCartItems(ctx, 1)

		// Assert
		assert.Nil(t, view)
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})
}

func TestUpdateCartItemQuantity(t *testing.T) {
	ctx := context.Background()
	product := &models.Product{ID: 10, Name: "Mug", Price: decimal.RequireFromString("9.99")}

	t.Run("Success - Overwrites Quantity", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 5}, nil).Once()
		m.store.On("UpdateQuantity", mock.Anything, int64(7), 7).Return(nil).Once()
		m.events.On("Publish", mock.Anything, mock.MatchedBy(func(e models.CartEvent) bool {
			return e.Type == models.CartItemUpdated && e.Quantity == 7
		})).Return(nil).Once()

		// Act
		err := cartService.UpdateCartItemQuantity(ctx, 1, 10, 7)

		// Assert
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("Success - Zero Delegates To Delete", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 5}, nil).Once()
		m.store.On("DeleteByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(int64(1), nil).Once()
		m.events.On("Publish", mock.Anything, mock.MatchedBy(func(e models.CartEvent) bool {
			return e.Type == models.CartItemRemoved
		})).Return(nil).Once()

		// Act
		err := cartService.UpdateCartItemQuantity(ctx, 1, 10, 0)

		// Assert
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("Success - Zero On A Line Deleted Concurrently Is A No-op", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 5}, nil).Once()
		m.store.On("DeleteByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(int64(0), nil).Once()

		// Act
		err := cartService.UpdateCartItemQuantity(ctx, 1, 10, 0)

		// Assert
		require.NoError(t, err)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Failure - Zero With Delete Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 5}, nil).Once()
		m.store.On("DeleteByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(int64(0), errors.New("db down")).Once()

		// Act
		err := cartService.UpdateCartItemQuantity(ctx, 1, 10, 0)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})

	t.Run("Failure - Update Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.users.On("UserExists", mock.Anything, int64(1)).Return(true, nil).Once()
		m.catalog.On("GetProduct", mock.Anything, int64(10)).Return(product, nil).Once()
		m.store.On("FindByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(&models.CartLine{ID: 7, UserID: 1, ProductID: 10, Quantity: 5}, nil).Once()
		m.store.On("UpdateQuantity", mock.Anything, int64(7), 2).Return(errors.New("deadlock")).Once()

		// Act
		err := cartService.UpdateCartItemQuantity(ctx, 1, 10, 2)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})
}

func TestDeleteCartItemAndCount(t *testing.T) {
	ctx := context.Background()

	t.Run("Failure - Delete Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.store.On("DeleteByUserAndProduct", mock.Anything, int64(1), int64(10)).Return(int64(0), errors.New("db down")).Once()

		// Act
		err := cartService.DeleteCartItem(ctx, 1, 10)

		// Assert
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})

	t.Run("Failure - Count Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.store.On("SumQuantityByUser", mock.Anything, int64(1)).Return(0, errors.New("db down")).Once()

		// Act
		count, err := cartService.GetCartItemCount(ctx, 1)

		// Assert
		assert.Zero(t, count)
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})

	t.Run("Failure - Clear Error", func(t *testing.T) {
		// Arrange
		cartService, m := setupCartService()
		m.store.On("DeleteAllByUser", mock.Anything, int64(1)).Return(int64(0), errors.New("db down")).Once()

		// Act
		removed, err := cartService.ClearCart(ctx, 1)

		// Assert
		assert.Zero(t, removed)
		requireAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		m.assertExpectations(t)
	})
}
