package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tempocache/application/ports"
)

// DynamoDB caps one transaction at 100 items.
const maxTransactItems = 100

// Runner executes transactions against a DynamoDB-backed store. Mutations
// accumulate as TransactWriteItems and commit in a single call, so either
// every staged mutation lands or none does.
type Runner[V any] struct {
	client *dynamodb.Client
	store  *Store[V]
}

// NewRunner creates a transaction runner over the given store.
func NewRunner[V any](store *Store[V]) *Runner[V] {
	return &Runner[V]{client: store.client, store: store}
}

type stagedOp[V any] struct {
	value  V
	remove bool
}

type dynamoTx[V any] struct {
	store *Store[V]
	items []types.TransactWriteItem
	// One mutation per key: DynamoDB rejects transactions that touch the
	// same item twice, so later mutations replace earlier ones in place.
	index  map[string]int
	staged map[string]stagedOp[V]
}

// Get returns the entry as the transaction sees it: staged mutations
// shadow the table.
func (t *dynamoTx[V]) Get(ctx context.Context, key string) (V, bool, error) {
	if op, ok := t.staged[key]; ok {
		if op.remove {
			var zero V
			return zero, false, nil
		}
		return op.value, true, nil
	}
	return t.store.Get(ctx, key)
}

// Put stages an insert or replace of the entry for key.
func (t *dynamoTx[V]) Put(_ context.Context, key string, value V) error {
	item, err := t.store.marshalItem(key, value)
	if err != nil {
		return err
	}
	t.stage(key, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(t.store.tableName),
			Item:      item,
		},
	})
	t.staged[key] = stagedOp[V]{value: value}
	return nil
}

// Remove stages a delete of the entry for key.
func (t *dynamoTx[V]) Remove(ctx context.Context, key string) (bool, error) {
	_, present, err := t.Get(ctx, key)
	if err != nil {
		return false, err
	}
	t.stage(key, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(t.store.tableName),
			Key:       t.store.itemKey(key),
		},
	})
	t.staged[key] = stagedOp[V]{remove: true}
	return present, nil
}

func (t *dynamoTx[V]) stage(key string, item types.TransactWriteItem) {
	if pos, ok := t.index[key]; ok {
		t.items[pos] = item
		return
	}
	t.index[key] = len(t.items)
	t.items = append(t.items, item)
}

// RunInTransaction runs fn over a fresh staged view and commits the staged
// mutations with one TransactWriteItems call when fn succeeds.
func (r *Runner[V]) RunInTransaction(ctx context.Context, fn func(tx ports.Tx[string, V]) error) error {
	tx := &dynamoTx[V]{
		store:  r.store,
		index:  make(map[string]int),
		staged: make(map[string]stagedOp[V]),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.items) == 0 {
		return nil
	}
	if len(tx.items) > maxTransactItems {
		return fmt.Errorf("transaction stages %d items, limit is %d", len(tx.items), maxTransactItems)
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx.items,
	})
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
