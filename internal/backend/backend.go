// Package backend opens the configured expense store. Both server and
// worker binaries go through Open so they agree on backend semantics.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"splitdash/internal/config"
	"splitdash/internal/storage"
	"splitdash/internal/store"
)

// CleanupFunc releases backend resources. It is always safe to call.
type CleanupFunc func() error

// Result bundles the opened store with its cleanup function.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Open builds the store named by cfg.DataBackend. The memory backend is
// seeded with the demo fixture so a fresh checkout renders a populated
// dashboard.
func Open(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		slog.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case "memory":
		mem := store.NewMemoryStore()
		if err := store.SeedDemoData(ctx, mem); err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
		slog.InfoContext(ctx, "Initialized memory backend", "demo_user", store.DemoUserID)
		return &Result{Store: mem, Cleanup: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
}
