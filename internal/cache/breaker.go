package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerCache guards a remote cache with a circuit breaker.
// While the breaker is open every call fails fast with ErrCacheUnavailable.
type BreakerCache struct {
	inner   ReportCache
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerCache wraps inner with a breaker that trips after repeated failures
func NewBreakerCache(inner ReportCache, name string, logger *logrus.Logger) *BreakerCache {
	return NewBreakerCacheWithSettings(inner, gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// NewBreakerCacheWithSettings wraps inner with explicit breaker settings
func NewBreakerCacheWithSettings(inner ReportCache, settings gobreaker.Settings) *BreakerCache {
	return &BreakerCache{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type lookup struct {
	data []byte
	ok   bool
}

// Get reads through the breaker
func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		data, ok, err := c.inner.Get(ctx, key)
		return lookup{data: data, ok: ok}, err
	})
	if err != nil {
		return nil, false, translate(err)
	}
	l := result.(lookup)
	return l.data, l.ok, nil
}

// Set writes through the breaker
func (c *BreakerCache) Set(ctx context.Context, key string, data []byte) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.inner.Set(ctx, key, data)
	})
	return translate(err)
}

// Delete removes through the breaker
func (c *BreakerCache) Delete(ctx context.Context, key string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.inner.Delete(ctx, key)
	})
	return translate(err)
}

// State reports the breaker state
func (c *BreakerCache) State() gobreaker.State {
	return c.breaker.State()
}

// Close closes the wrapped cache
func (c *BreakerCache) Close() error {
	return c.inner.Close()
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCacheUnavailable
	}
	return err
}
