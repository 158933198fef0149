package app

import (
	"context"
	"fmt"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/ports"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/cache"
)

// CacheSequencer hands out order sequences from an atomic counter per
// month prefix. Every allocation is raised to at least one past the last
// stored number, so numbers written through the store counter are never
// handed out again.
type CacheSequencer struct {
	cache  cache.Cache
	orders ports.OrderStore
}

func NewCacheSequencer(c cache.Cache, orders ports.OrderStore) *CacheSequencer {
	return &CacheSequencer{cache: c, orders: orders}
}

func (s *CacheSequencer) Next(ctx context.Context, prefix string) (int, error) {
	last, err := s.orders.LastOrderNumber(ctx, prefix)
	if err != nil {
		return 0, err
	}
	floor, err := domain.NextSequence(prefix, last)
	if err != nil {
		return 0, err
	}

	n, err := s.cache.IncrAtLeast(ctx, s.cache.GenerateKey("order-seq", prefix), int64(floor))
	if err != nil {
		return 0, fmt.Errorf("sequencer: incr %s: %w", prefix, err)
	}
	if n > domain.MaxSequence {
		return 0, fmt.Errorf("%w: %s", domain.ErrSequenceExhausted, prefix)
	}
	return int(n), nil
}
