package cache_test

import (
	"context"
	"testing"
	"time"

	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGet(t *testing.T) {
	store, _ := testutil.NewRedis(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, store.Set(ctx, "obj", payload{Name: "a", Count: 2}, 0))
	require.NoError(t, store.Set(ctx, "str", "plain text", 0))

	var got payload
	require.NoError(t, store.Get(ctx, "obj", &got))
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	var s string
	require.NoError(t, store.Get(ctx, "str", &s))
	assert.Equal(t, "plain text", s)

	err := store.Get(ctx, "missing", &s)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestStoreCounters(t *testing.T) {
	store, mr := testutil.NewRedis(t)
	ctx := context.Background()

	n, err := store.Incr(ctx, "c", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = store.Decr(ctx, "c", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	v, ok, err := store.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok, err = store.GetInt(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Expire(ctx, "c", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, ok, err = store.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreHashes(t *testing.T) {
	store, _ := testutil.NewRedis(t)
	ctx := context.Background()

	require.NoError(t, store.HSet(ctx, "h", "n", 7))
	require.NoError(t, store.HSet(ctx, "h", "s", "hello"))

	var n int
	require.NoError(t, store.HGet(ctx, "h", "n", &n))
	assert.Equal(t, 7, n)

	all, err := store.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, float64(7), all["n"])
	assert.Equal(t, "hello", all["s"])

	var s string
	assert.ErrorIs(t, store.HGet(ctx, "h", "missing", &s), cache.ErrMiss)
}

func TestKeysAndDelPattern(t *testing.T) {
	store, _ := testutil.NewRedis(t)
	ctx := context.Background()

	for _, k := range []string{"usage:user:1:views", "usage:user:2:views", "other"} {
		require.NoError(t, store.Set(ctx, k, "1", 0))
	}

	keys, err := store.Keys(ctx, "usage:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"usage:user:1:views", "usage:user:2:views"}, keys)

	n, err := store.DelPattern(ctx, "usage:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	keys, err = store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)
}
