package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kasuganosora/mathquest/cache"
	"github.com/kasuganosora/mathquest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type record struct {
	Date      string   `json:"date"`
	Completed []string `json:"completed"`
}

func newStore(t *testing.T) (*Store, cache.Cache, *observer.ObservedLogs) {
	c, err := cache.NewCache(config.CacheConfig{})
	require.NoError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	return New(c, zap.New(core)), c, logs
}

func TestKey(t *testing.T) {
	assert.Equal(t, "mathquest:p1:total-points", Key("p1", "total-points"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	want := record{Date: "2024-01-05", Completed: []string{"speed-sprint"}}
	require.NoError(t, s.Save(ctx, Key("p1", "daily-record"), want))

	got, err := Load(ctx, s, Key("p1", "daily-record"), record{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MissingReturnsFallback(t *testing.T) {
	s, _, logs := newStore(t)
	got, err := Load(context.Background(), s, Key("p1", "total-points"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.Zero(t, logs.Len())
}

func TestLoad_MalformedFallsBackWithWarning(t *testing.T) {
	s, c, logs := newStore(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, Key("p1", "completed-modules"), "{not json", 0))

	got, err := Load(ctx, s, Key("p1", "completed-modules"), []string{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to parse stored value, using default", logs.All()[0].Message)
}

type failingCache struct{ cache.Cache }

func (failingCache) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func TestBackendErrorsPropagate(t *testing.T) {
	s := New(failingCache{}, zap.NewNop())
	ctx := context.Background()

	got, err := Load(ctx, s, "k", 42)
	require.Error(t, err)
	assert.Equal(t, 42, got)

	assert.Error(t, s.Save(ctx, "k", 1))
}

func TestSave_EncodeError(t *testing.T) {
	s, _, _ := newStore(t)
	err := s.Save(context.Background(), "k", make(chan int))
	assert.ErrorContains(t, err, "store: encode k")
}
