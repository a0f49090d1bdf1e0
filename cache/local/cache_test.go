package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "mathquest:p1:profile", `{"id":"p1"}`, 0))

	v, err := c.Get(ctx, "mathquest:p1:profile")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"p1"}`, v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ttl_key", "val", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "ttl_key")
	assert.False(t, ok)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.ZAdd(ctx, "z", 1, "a")
	require.NoError(t, c.Del(ctx, "k", "z"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	members, _ := c.ZRevRange(ctx, "z", 0, -1)
	assert.Empty(t, members)
}

func TestZSetOrdering(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.ZAdd(ctx, "board", 150, "ada")
	_ = c.ZAdd(ctx, "board", 420, "grace")
	_ = c.ZAdd(ctx, "board", 90, "alan")
	_ = c.ZAdd(ctx, "board", 500, "ada") // score replaced

	members, err := c.ZRevRange(ctx, "board", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada", "grace", "alan"}, members)

	top, _ := c.ZRevRange(ctx, "board", 0, 1)
	assert.Equal(t, []string{"ada", "grace"}, top)

	score, err := c.ZScore(ctx, "board", "ada")
	require.NoError(t, err)
	assert.Equal(t, 500.0, score)

	_, err = c.ZScore(ctx, "board", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZRevRangeOutOfBounds(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.ZAdd(ctx, "board", 1, "only")

	members, err := c.ZRevRange(ctx, "board", 5, 10)
	require.NoError(t, err)
	assert.Nil(t, members)
}

func TestCloseTwice(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	c.Close()
	assert.NotPanics(t, c.Close)
}
