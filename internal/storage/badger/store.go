// Package badger provides the badger-backed key-value cache for market data.
package badger

import (
	"fmt"
	"os"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens a store at path, or an in-memory store when inMemory is set.
func NewStore(logger *common.Logger, path string, inMemory bool) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil // Disable default badger logger

	if inMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
		}
		options.Dir = path
		options.ValueDir = path
	}

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Bool("in_memory", inMemory).Msg("Badger cache opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
