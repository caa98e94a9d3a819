package utils

import (
	"context"
	"time"
)

const DefaultDBTimeout = 5 * time.Second

// WithDBTimeout bounds every repository query.
func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDBTimeout)
}
