// Package store persists whole JSON values under string keys on top of the
// cache backend. It is the only persistence profile state goes through.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/mathquest/cache"
	"go.uber.org/zap"
)

const keyPrefix = "mathquest:"

// Store reads and writes JSON documents.
type Store struct {
	c      cache.Cache
	logger *zap.Logger
}

// New creates a Store over c.
func New(c cache.Cache, logger *zap.Logger) *Store {
	return &Store{c: c, logger: logger}
}

// Key builds the key for one named document of a profile.
func Key(profileID, name string) string {
	return keyPrefix + profileID + ":" + name
}

// Load decodes the document at key. A missing or unparseable document yields
// fallback; only backend failures are returned as errors.
func Load[T any](ctx context.Context, s *Store, key string, fallback T) (T, error) {
	raw, err := s.c.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return fallback, nil
		}
		return fallback, fmt.Errorf("store: get %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("failed to parse stored value, using default",
			zap.String("key", key), zap.Error(err))
		return fallback, nil
	}
	return v, nil
}

// Save encodes v and overwrites the document at key.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.c.Set(ctx, key, string(data), 0); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a document is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.c.Exists(ctx, key)
}

// Cache exposes the backend for sorted-set use (leaderboard).
func (s *Store) Cache() cache.Cache {
	return s.c
}
