// Package cache keeps recently analysed snapshots so repeated requests for
// the same product URL skip the browser.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

const keyPrefix = "quickshop:snapshot:"

// SnapshotCache stores snapshots by product URL.
type SnapshotCache interface {
	// Get returns the cached snapshot for url. A miss is (nil, false, nil).
	Get(ctx context.Context, url string) (*types.Snapshot, bool, error)
	Put(ctx context.Context, snap *types.Snapshot) error
	Close() error
}

// Key returns the cache key for a product URL. Query strings and fragments
// are ignored, and so is case.
func Key(url string) string {
	u := strings.ToLower(strings.TrimSpace(url))
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return keyPrefix + strings.TrimRight(u, "/")
}

// New returns the configured cache: valkey when enabled, otherwise an
// in-process LRU.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (SnapshotCache, error) {
	if !cfg.Enabled {
		return NewMemory(64, cfg.TTL), nil
	}
	v, err := NewValkey(ctx, cfg.Address, cfg.Password, cfg.TTL, logger)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Memory is an in-process snapshot cache with expiry.
type Memory struct {
	lru *expirable.LRU[string, *types.Snapshot]
}

// NewMemory creates a Memory cache holding up to size snapshots for ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, *types.Snapshot](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, url string) (*types.Snapshot, bool, error) {
	snap, ok := m.lru.Get(Key(url))
	return snap, ok, nil
}

func (m *Memory) Put(_ context.Context, snap *types.Snapshot) error {
	m.lru.Add(Key(snap.URL), snap)
	return nil
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
