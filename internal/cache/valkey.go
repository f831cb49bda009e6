package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/quickshop-id/quickshop/internal/types"
)

// kv is the subset of Valkey commands the snapshot cache issues.
type kv interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	setex(ctx context.Context, key string, seconds int64, value string) error
	del(ctx context.Context, key string) error
	close()
}

// valkeyKV issues commands through a valkey-go client.
type valkeyKV struct {
	client valkey.Client
}

func (c valkeyKV) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c valkeyKV) setex(ctx context.Context, key string, seconds int64, value string) error {
	return c.client.Do(ctx, c.client.B().Setex().Key(key).Seconds(seconds).Value(value).Build()).Error()
}

func (c valkeyKV) del(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

func (c valkeyKV) close() { c.client.Close() }

// Valkey stores snapshots as JSON strings with a TTL.
type Valkey struct {
	store  kv
	ttl    time.Duration
	logger *slog.Logger
}

// NewValkey connects to the server at addr and pings it.
func NewValkey(ctx context.Context, addr, password string, ttl time.Duration, logger *slog.Logger) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, &types.StorageError{Backend: "valkey", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, &types.StorageError{Backend: "valkey", Err: fmt.Errorf("ping: %w", err)}
	}

	logger.Info("connected to valkey", "address", addr)
	return newValkey(valkeyKV{client: client}, ttl, logger), nil
}

func newValkey(store kv, ttl time.Duration, logger *slog.Logger) *Valkey {
	return &Valkey{store: store, ttl: ttl, logger: logger.With("component", "valkey_cache")}
}

func (v *Valkey) Get(ctx context.Context, url string) (*types.Snapshot, bool, error) {
	key := Key(url)
	data, ok, err := v.store.get(ctx, key)
	if err != nil {
		return nil, false, &types.StorageError{Backend: "valkey", Err: err}
	}
	if !ok {
		return nil, false, nil
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		v.logger.Warn("dropping unreadable cache entry", "url", url, "error", err)
		if err := v.store.del(ctx, key); err != nil {
			v.logger.Warn("failed to delete cache entry", "key", key, "error", err)
		}
		return nil, false, nil
	}
	return &snap, true, nil
}

// Put stores snap under its URL. The TTL is rounded down to whole seconds
// and never below one.
func (v *Valkey) Put(ctx context.Context, snap *types.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	seconds := int64(v.ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if err := v.store.setex(ctx, Key(snap.URL), seconds, string(data)); err != nil {
		return &types.StorageError{Backend: "valkey", Err: err}
	}
	return nil
}

func (v *Valkey) Close() error {
	v.store.close()
	return nil
}
