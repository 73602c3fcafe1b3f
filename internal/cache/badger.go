package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const archiveKeyPrefix = "archive:"

// Archive is a best-effort persistent layer under the in-memory cache,
// backed by BadgerDB with native TTL entries. It survives process restarts;
// losing it only costs refetches, so every error is safe to ignore.
type Archive struct {
	db *badger.DB
}

// OpenArchive opens (or creates) a Badger-backed archive at dir.
func OpenArchive(dir string) (*Archive, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Put stores a JSON-encoded value under key with the given TTL.
func (a *Archive) Put(key string, value any, ttl time.Duration) error {
	if a == nil || a.db == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(archiveKeyPrefix+key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get decodes the stored value for key into dest. A missing or expired key
// reports false with no error.
func (a *Archive) Get(key string, dest any) (bool, error) {
	if a == nil || a.db == nil {
		return false, nil
	}
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(archiveKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read archive entry: %w", err)
	}
	return true, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
