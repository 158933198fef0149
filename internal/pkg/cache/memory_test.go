package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache("order")
	ctx := context.Background()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, c.Set(ctx, "k", 42, 0))
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache("order").(*memoryCache)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)

	v, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestMemoryCache_IncrAtLeast(t *testing.T) {
	c := NewMemoryCache("order")
	ctx := context.Background()

	n, err := c.IncrAtLeast(ctx, "fresh", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.IncrAtLeast(ctx, "seq", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = c.IncrAtLeast(ctx, "seq", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)

	// A higher floor moves the counter forward.
	n, err = c.IncrAtLeast(ctx, "seq", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	require.NoError(t, c.Set(ctx, "text", "abc", 0))
	_, err = c.IncrAtLeast(ctx, "text", 0)
	assert.Error(t, err)
}

func TestMemoryCache_IncrConcurrent(t *testing.T) {
	c := NewMemoryCache("order")
	ctx := context.Background()

	var wg sync.WaitGroup
	seen := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.IncrAtLeast(ctx, "seq", 0)
			assert.NoError(t, err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 100)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "order:idempotency:abc", NewMemoryCache("order").GenerateKey("idempotency", "abc"))
	assert.Equal(t, "order:seq:SRM2610", NewRedisCache("localhost:0", "order").GenerateKey("seq", "SRM2610"))
}
