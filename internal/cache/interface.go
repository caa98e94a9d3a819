package cache

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrCorruptEntry marks a stored value that no longer decodes into the target.
var ErrCorruptEntry = errors.New("corrupt cache entry")

type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

func IDKey(prefix string, id int64) string {
	return Key(prefix, strconv.FormatInt(id, 10))
}

const (
	ProductKeyPrefix       = "product"
	ProductImagesKeyPrefix = "product_images"
)
