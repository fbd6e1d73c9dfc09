package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	bdb "github.com/dgraph-io/badger/v4"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
)

// KVCache implements interfaces.KeyValueCache on raw badger entries so that
// every key carries its own TTL. Expired entries read as absent.
type KVCache struct {
	store  *Store
	logger *common.Logger
}

// NewKVCache creates a cache on top of an open store.
func NewKVCache(store *Store, logger *common.Logger) *KVCache {
	return &KVCache{store: store, logger: logger}
}

// Get returns the value for key and whether it was present.
func (c *KVCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.store.db.Badger().View(func(txn *bdb.Txn) error {
		v, err := getValue(txn, key)
		value = v
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return value, value != nil, nil
}

// GetMany reads all keys in one transaction; absent entries are nil.
func (c *KVCache) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	err := c.store.db.Badger().View(func(txn *bdb.Txn) error {
		for i, key := range keys {
			v, err := getValue(txn, key)
			if err != nil {
				return fmt.Errorf("key '%s': %w", key, err)
			}
			values[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}
	return values, nil
}

// Save writes value under key in its own transaction. The entry stays
// readable for at least ttl.
func (c *KVCache) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := bdb.NewEntry([]byte(key), value)
	if ttl > 0 {
		entry.ExpiresAt = expiresAt(time.Now(), ttl)
	}
	err := c.store.db.Badger().Update(func(txn *bdb.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to save key '%s': %w", key, err)
	}
	return nil
}

// Close closes the underlying store.
func (c *KVCache) Close() error {
	return c.store.Close()
}

// expiresAt rounds now+ttl up to the next whole second. Badger stores expiry
// as Unix seconds and treats an entry as gone once that second is reached.
func expiresAt(now time.Time, ttl time.Duration) uint64 {
	at := now.Add(ttl)
	sec := at.Unix()
	if at.Nanosecond() > 0 {
		sec++
	}
	return uint64(sec)
}

// getValue returns nil without error for absent or expired keys.
func getValue(txn *bdb.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, bdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

var _ interfaces.KeyValueCache = (*KVCache)(nil)
