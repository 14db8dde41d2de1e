package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ndkgw/internal/storage"
)

// ObjectStore implements storage.ObjectStore directly against the raw
// *badger.DB underneath a BadgerDB connection, bypassing badgerhold's
// struct encoding — the gateway's objects are pre-serialized YAML blobs
// keyed by stable strings (spec §4.7), not badgerhold records.
type ObjectStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewObjectStore wraps an existing BadgerDB connection.
func NewObjectStore(db *BadgerDB, logger arbor.ILogger) *ObjectStore {
	return &ObjectStore{db: db, logger: logger}
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

func (s *ObjectStore) raw() *badger.DB {
	return s.db.Store().Badger()
}

// Get returns the bytes stored at key, or storage.ErrNotFound.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.raw().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes value at key, overwriting any prior object.
func (s *ObjectStore) Set(ctx context.Context, key string, value []byte) error {
	return s.raw().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key. It is not an error to delete a missing key.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	return s.raw().Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// List returns every key with the given prefix, in lexical (Badger's
// natural iteration) order.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.raw().View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
