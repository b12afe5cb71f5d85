package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/sanctions"
	"trustline/internal/sanctions/cache"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

func TestInMemory(t *testing.T) {
	addr := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("round trips a verdict", func(t *testing.T) {
		c := cache.NewInMemory(time.Minute)
		saved := sanctions.Verdict{Address: addr, Sanctioned: true, Source: "ofac", AsOf: now}
		require.NoError(t, c.Save(ctx, saved))

		found, err := c.Find(ctx, "ofac", addr)
		require.NoError(t, err)
		assert.Equal(t, saved, *found)
	})

	t.Run("misses are sentinel errors", func(t *testing.T) {
		c := cache.NewInMemory(time.Minute)

		_, err := c.Find(ctx, "ofac", addr)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("entries expire against the request clock", func(t *testing.T) {
		c := cache.NewInMemory(time.Minute)
		require.NoError(t, c.Save(ctx, sanctions.Verdict{Address: addr, Source: "ofac", AsOf: now}))

		later := requestcontext.WithTime(context.Background(), now.Add(2*time.Minute))
		_, err := c.Find(later, "ofac", addr)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("keys are scoped per source", func(t *testing.T) {
		c := cache.NewInMemory(time.Minute)
		require.NoError(t, c.Save(ctx, sanctions.Verdict{Address: addr, Sanctioned: true, Source: "ofac", AsOf: now}))

		_, err := c.Find(ctx, "chainalysis", addr)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("newer verdicts overwrite older ones", func(t *testing.T) {
		c := cache.NewInMemory(time.Minute)
		require.NoError(t, c.Save(ctx, sanctions.Verdict{Address: addr, Sanctioned: true, Source: "ofac", AsOf: now.Add(-30 * time.Second)}))
		require.NoError(t, c.Save(ctx, sanctions.Verdict{Address: addr, Sanctioned: false, Source: "ofac", AsOf: now}))

		found, err := c.Find(ctx, "ofac", addr)
		require.NoError(t, err)
		assert.False(t, found.Sanctioned)
	})
}
