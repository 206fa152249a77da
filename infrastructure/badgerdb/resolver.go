package badgerdb

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// PrefixResolver resolves the dependents of a root key by scanning a derived
// key prefix, keys only. Roots without a dependent prefix resolve to nothing.
type PrefixResolver struct {
	db        *DB
	prefixFor func(root string) (string, bool)
}

// NewPrefixResolver creates a resolver using prefixFor to derive the
// dependent prefix of a root key.
func NewPrefixResolver(db *DB, prefixFor func(root string) (string, bool)) *PrefixResolver {
	return &PrefixResolver{
		db:        db,
		prefixFor: prefixFor,
	}
}

// Resolve returns the keys stored under the root's dependent prefix.
func (r *PrefixResolver) Resolve(ctx context.Context, root string) ([]string, error) {
	prefix, ok := r.prefixFor(root)
	if !ok {
		return nil, nil
	}
	var dependents []string
	err := r.db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         []byte(prefix),
			PrefetchValues: false,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			dependents = append(dependents, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependents of %s: %w", root, err)
	}
	return dependents, nil
}
