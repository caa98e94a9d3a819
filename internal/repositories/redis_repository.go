package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	"github.com/aaravmahajanofficial/sales-savvy/internal/config"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Successfully connected to Redis")
	return client, nil

}

// RateLimitRepository counts requests per subject in a sliding window.
// It reports whether the request is allowed, how many remain and, when
// refused, the seconds until the oldest request leaves the window.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, subject string) (bool, int, int, error)
}

type redisRateLimiter struct {
	client *redis.Client
	cfg    *config.RateConfig
	now    func() time.Time
}

func NewRateLimitRepo(client *redis.Client, cfg *config.RateConfig) RateLimitRepository {
	return &redisRateLimiter{client: client, cfg: cfg, now: time.Now}
}

func rateLimitKey(subject string) string {
	return fmt.Sprintf("cart_mutations:%s", subject)
}

func (r *redisRateLimiter) CheckRateLimit(ctx context.Context, subject string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := rateLimitKey(subject)

	now := r.now()
	window := int64(r.cfg.WindowSize.Seconds())

	// only requests after windowStart are counted
	windowStart := now.Unix() - window

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// the member is unique per request, the score is its second
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts > r.cfg.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest request time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(window), fmt.Errorf("failed to get oldest request time: %w", err)
		}

		retryAfter := max(int64(scores[0].Score)+window-now.Unix(), 1)

		logger.Warn("Rate limit exceeded", slog.String("subject", subject), slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	return true, int(r.cfg.MaxAttempts - attempts), 0, nil
}
