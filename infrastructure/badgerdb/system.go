package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
)

const scanPrefetchSize = 100

// System is a string-keyed ExternalSystem over one kind prefix of a shared
// Badger database. Values are stored as JSON.
//
// The optional rank function orders LoadTop results, highest first; without
// it LoadTop falls back to key order.
type System[V any] struct {
	db     *DB
	prefix []byte
	rank   func(V) int
}

// NewSystem creates a system of record view over the given kind prefix.
func NewSystem[V any](db *DB, prefix string, rank func(V) int) *System[V] {
	return &System[V]{
		db:     db,
		prefix: []byte(prefix),
		rank:   rank,
	}
}

// Load fetches the value for key, reporting whether it exists.
func (s *System[V]) Load(ctx context.Context, key string) (V, bool, error) {
	var value V
	found := false
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("failed to decode value: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		var zero V
		return zero, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, found, nil
}

// LoadMany fetches the given keys inside one read transaction. Unknown keys
// are omitted from the result.
func (s *System[V]) LoadMany(ctx context.Context, keys []string) (map[string]V, error) {
	found := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return found, nil
	}
	err := s.db.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", key, err)
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", key, err)
			}
			var value V
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("failed to decode %s: %w", key, err)
			}
			found[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Persist writes one value.
func (s *System[V]) Persist(ctx context.Context, key string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	err = s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// PersistMany writes a batch of values. Batches that outgrow one Badger
// transaction are committed in chunks, so a mid-batch failure can leave
// earlier chunks applied; callers treat persisted duplicates as benign.
func (s *System[V]) PersistMany(ctx context.Context, entries map[string]V) error {
	if len(entries) == 0 {
		return nil
	}
	txn := s.db.db.NewTransaction(true)
	for key, value := range entries {
		raw, err := json.Marshal(value)
		if err != nil {
			txn.Discard()
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		err = txn.Set([]byte(key), raw)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err = txn.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			txn = s.db.db.NewTransaction(true)
			err = txn.Set([]byte(key), raw)
		}
		if err != nil {
			txn.Discard()
			return fmt.Errorf("failed to persist %s: %w", key, err)
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// LoadTop scans the kind prefix and returns up to n entries, ranked highest
// first when a rank function is configured.
func (s *System[V]) LoadTop(ctx context.Context, n int) (map[string]V, error) {
	top := make(map[string]V)
	if n <= 0 {
		return top, nil
	}

	type entry struct {
		key   string
		value V
	}
	var entries []entry
	err := s.db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         s.prefix,
			PrefetchValues: true,
			PrefetchSize:   scanPrefetchSize,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", item.Key(), err)
			}
			var value V
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("failed to decode %s: %w", item.Key(), err)
			}
			entries = append(entries, entry{key: string(item.KeyCopy(nil)), value: value})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.prefix, err)
	}

	if s.rank != nil {
		sort.SliceStable(entries, func(i, j int) bool {
			return s.rank(entries[i].value) > s.rank(entries[j].value)
		})
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	for _, e := range entries {
		top[e.key] = e.value
	}
	return top, nil
}
