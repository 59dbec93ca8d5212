// Package cache stores rendered report documents keyed by assessment and format.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/domain"
)

// ErrCacheUnavailable is returned while the backing cache is considered unhealthy
var ErrCacheUnavailable = errors.New("report cache unavailable")

// ReportCache stores rendered report bytes.
// A miss is reported as (nil, false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds the cache key for a rendered report
func Key(assessmentID, format string) string {
	return assessmentID + ":" + format
}

// New builds the report cache selected by configuration.
// Redis caches are wrapped in a circuit breaker. Driver "none" returns nil.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (ReportCache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryCache(cfg.MaxItems, cfg.DefaultTTL), nil
	case "redis":
		redisCache, err := NewRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		return NewBreakerCache(redisCache, "report-cache-redis", logger), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
