package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicenote/pkg/db/redis"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("connects to running server", func(t *testing.T) {
		srv := miniredis.RunT(t)

		client, err := redis.New(ctx, redis.Config{Address: srv.Addr(), DialTimeout: time.Second})
		require.NoError(t, err)
		require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
		assert.Equal(t, "v", client.Get(ctx, "k").Val())
		require.NoError(t, client.Close())
	})

	t.Run("fails when server is down", func(t *testing.T) {
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		client, err := redis.New(ctx, redis.Config{Address: addr, DialTimeout: 200 * time.Millisecond})
		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), redis.ErrConnect)
	})
}
