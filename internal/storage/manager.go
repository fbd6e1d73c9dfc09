// Package storage provides the top-level StorageManager that pairs the
// relational asset store with the market price cache.
package storage

import (
	"context"
	"fmt"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/storage/badger"
	"github.com/tptkds/assetManagement/internal/storage/pricecache"
	"github.com/tptkds/assetManagement/internal/storage/sqldb"
	"github.com/tptkds/assetManagement/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSurreal  = "surrealdb"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	assets interfaces.AssetStore
	kv     interfaces.KeyValueCache
	cache  *pricecache.Cache
	logger *common.Logger
}

// NewManager opens the configured asset store and the cache.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	assets, err := NewAssetStore(ctx, logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}

	cacheStore, err := badger.NewStore(logger, config.Storage.Cache.Path, config.Storage.Cache.InMemory)
	if err != nil {
		assets.Close()
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}
	kv := badger.NewKVCache(cacheStore, logger)

	logger.Info().
		Str("backend", backendName(config.Storage.Backend)).
		Str("cache", config.Storage.Cache.Path).
		Bool("cache_in_memory", config.Storage.Cache.InMemory).
		Msg("Storage manager initialized")

	return NewManagerFrom(assets, kv, logger), nil
}

// NewManagerFrom assembles a manager from already opened parts.
func NewManagerFrom(assets interfaces.AssetStore, kv interfaces.KeyValueCache, logger *common.Logger) *Manager {
	return &Manager{
		assets: assets,
		kv:     kv,
		cache:  pricecache.New(kv, logger),
		logger: logger,
	}
}

// NewAssetStore creates the relational store for the configured backend.
// Supported backends: "sqlite" (default), "postgres", "surrealdb".
func NewAssetStore(ctx context.Context, logger *common.Logger, config *common.StorageConfig) (interfaces.AssetStore, error) {
	switch backendName(config.Backend) {
	case BackendSQLite:
		db, err := sqldb.NewDB(sqldb.DriverSQLite, config.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.ApplySchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return sqldb.NewStore(db, logger), nil

	case BackendPostgres:
		db, err := sqldb.NewDB(sqldb.DriverPostgres, config.DSN)
		if err != nil {
			return nil, err
		}
		return sqldb.NewStore(db, logger), nil

	case BackendSurreal:
		return surrealdb.Connect(ctx, config.SurrealDB, logger)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, postgres, surrealdb)", config.Backend)
	}
}

func backendName(backend string) string {
	if backend == "" {
		return BackendSQLite
	}
	return backend
}

func (m *Manager) AssetStore() interfaces.AssetStore {
	return m.assets
}

func (m *Manager) MarketCache() interfaces.MarketCache {
	return m.cache
}

// Close closes both stores, reporting the first error.
func (m *Manager) Close() error {
	var firstErr error
	if m.assets != nil {
		if err := m.assets.Close(); err != nil {
			firstErr = err
		}
	}
	if m.kv != nil {
		if err := m.kv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ interfaces.StorageManager = (*Manager)(nil)
