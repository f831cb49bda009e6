// Package storage persists analysed product snapshots.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists one snapshot.
	Store(ctx context.Context, snap *types.Snapshot) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

const (
	maxFilenameRunes = 50
	invalidFileChars = `<>:"/\|?*`
	fallbackFilename = "produk"
)

// FormatFilename makes a product name safe to use as a file name: invalid
// characters are dropped, the result is cut to 50 characters, trimmed, and
// spaces become underscores.
func FormatFilename(productName string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFileChars, r) {
			return -1
		}
		return r
	}, productName)

	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = string(runes[:maxFilenameRunes])
	}
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), " ", "_")
	if cleaned == "" {
		return fallbackFilename
	}
	return cleaned
}

// New builds the configured backends. More than one type yields a
// MultiStorage.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	backends := make([]Storage, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		s, err := newBackend(ctx, t, cfg, logger)
		if err != nil {
			for _, b := range backends {
				_ = b.Close()
			}
			return nil, &types.StorageError{Backend: t, Err: err}
		}
		backends = append(backends, s)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no storage backend configured")
	case 1:
		return backends[0], nil
	default:
		return NewMultiStorage(backends, logger), nil
	}
}

func newBackend(ctx context.Context, storageType string, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "csv", "json", "jsonl":
		return NewFileStorage(storageType, cfg.OutputDir, logger)
	case "mongo":
		return NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, "snapshots", logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
