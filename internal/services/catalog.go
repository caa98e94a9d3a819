package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	"github.com/aaravmahajanofficial/sales-savvy/internal/cache"
	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	repository "github.com/aaravmahajanofficial/sales-savvy/internal/repositories"
	"golang.org/x/sync/singleflight"
)

// CatalogGateway is the read-only view of products the cart depends on.
type CatalogGateway interface {
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	GetImageURLs(ctx context.Context, productID int64) ([]string, error)
}

type catalogGateway struct {
	repo  repository.ProductRepository
	cache cache.Cache
	ttl   time.Duration
	sfg   singleflight.Group
}

// NewCatalogGateway serves products cache-aside. Cache failures never fail a
// lookup, the database stays the source of truth.
func NewCatalogGateway(repo repository.ProductRepository, c cache.Cache, ttl time.Duration) CatalogGateway {
	return &catalogGateway{repo: repo, cache: c, ttl: ttl}
}

func (g *catalogGateway) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {

	key := cache.IDKey(cache.ProductKeyPrefix, productID)

	v, err := g.shared(ctx, key, func(ctx context.Context) (any, error) {

		var cached models.Product
		if g.readCache(ctx, key, &cached) {
			return &cached, nil
		}

		product, err := g.repo.GetProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, appErrors.NotFoundError("Product not found").WithDetail(fmt.Sprintf("productId: %d", productID)).WithError(err)
			}
			return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
		}

		g.writeCache(ctx, key, product)

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*models.Product), nil
}

func (g *catalogGateway) GetImageURLs(ctx context.Context, productID int64) ([]string, error) {

	key := cache.IDKey(cache.ProductImagesKeyPrefix, productID)

	v, err := g.shared(ctx, key, func(ctx context.Context) (any, error) {

		var cached []string
		if g.readCache(ctx, key, &cached) {
			return cached, nil
		}

		urls, err := g.repo.ListImageURLs(ctx, productID)
		if err != nil {
			return nil, appErrors.DatabaseError("Failed to fetch product images").WithError(err)
		}

		g.writeCache(ctx, key, urls)

		return urls, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]string), nil
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// that outlives any single caller, each caller still stops waiting when its
// own context ends.
func (g *catalogGateway) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {

	detached := context.WithoutCancel(ctx)

	ch := g.sfg.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *catalogGateway) readCache(ctx context.Context, key string, dest any) bool {

	found, err := g.cache.Get(ctx, key, dest)
	if err == nil {
		return found
	}

	logger := middleware.LoggerFromContext(ctx)
	logger.Warn("Catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))

	if errors.Is(err, cache.ErrCorruptEntry) {
		if delErr := g.cache.Delete(ctx, key); delErr != nil {
			logger.Warn("Failed to evict corrupt cache entry", slog.String("key", key), slog.String("error", delErr.Error()))
		}
	}

	return false
}

func (g *catalogGateway) writeCache(ctx context.Context, key string, value any) {
	if err := g.cache.Set(ctx, key, value, g.ttl); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
