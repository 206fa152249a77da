package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempocache/application/ports"
	"tempocache/domain/catalog"
)

func testStore() *Store[catalog.Artist] {
	return NewStore[catalog.Artist](nil, "tempocache", "CACHE")
}

func TestMarshalItemOverlaysKeyAttributes(t *testing.T) {
	store := testStore()
	artist := catalog.Artist{ID: "42", Name: "Madonna", Genre: "pop", Popularity: 95}

	item, err := store.marshalItem("artist#42", artist)
	require.NoError(t, err)

	pk, ok := item["PK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "CACHE#artist#42", pk.Value)

	sk, ok := item["SK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "ENTRY", sk.Value)

	name, ok := item["Name"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "Madonna", name.Value)
}

func TestUnmarshalItemRoundTrip(t *testing.T) {
	store := testStore()
	artist := catalog.Artist{ID: "42", Name: "Madonna", Genre: "pop", Popularity: 95}

	item, err := store.marshalItem("artist#42", artist)
	require.NoError(t, err)

	key, value, err := store.unmarshalItem(item)
	require.NoError(t, err)
	assert.Equal(t, "artist#42", key)
	assert.Equal(t, artist, value)
}

func TestUnmarshalItemRejectsForeignKeyspace(t *testing.T) {
	store := testStore()
	other := NewStore[catalog.Artist](nil, "tempocache", "OTHER")

	item, err := other.marshalItem("artist#42", catalog.Artist{ID: "42", Name: "Madonna"})
	require.NoError(t, err)

	_, _, err = store.unmarshalItem(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside keyspace")
}

func newTx(store *Store[catalog.Artist]) *dynamoTx[catalog.Artist] {
	return &dynamoTx[catalog.Artist]{
		store:  store,
		index:  make(map[string]int),
		staged: make(map[string]stagedOp[catalog.Artist]),
	}
}

func TestTxStagesOneMutationPerKey(t *testing.T) {
	tx := newTx(testStore())
	ctx := context.Background()

	require.NoError(t, tx.Put(ctx, "artist#42", catalog.Artist{ID: "42", Name: "First"}))
	require.NoError(t, tx.Put(ctx, "artist#42", catalog.Artist{ID: "42", Name: "Second"}))
	require.Len(t, tx.items, 1)

	// The last mutation wins, both in the item list and the staged view.
	value, found, err := tx.Get(ctx, "artist#42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Second", value.Name)

	_, err = tx.Remove(ctx, "artist#42")
	require.NoError(t, err)
	require.Len(t, tx.items, 1)
	assert.NotNil(t, tx.items[0].Delete)
	assert.Nil(t, tx.items[0].Put)

	_, found, err = tx.Get(ctx, "artist#42")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTxStagesDistinctKeysInOrder(t *testing.T) {
	tx := newTx(testStore())
	ctx := context.Background()

	require.NoError(t, tx.Put(ctx, "artist#1", catalog.Artist{ID: "1", Name: "A"}))
	require.NoError(t, tx.Put(ctx, "artist#2", catalog.Artist{ID: "2", Name: "B"}))
	require.Len(t, tx.items, 2)
	assert.NotNil(t, tx.items[0].Put)
	assert.NotNil(t, tx.items[1].Put)
}

func TestRunnerSkipsCommitWithoutMutations(t *testing.T) {
	runner := NewRunner(testStore())

	// No staged mutations: the nil client is never touched.
	err := runner.RunInTransaction(context.Background(), func(tx ports.Tx[string, catalog.Artist]) error {
		return nil
	})
	require.NoError(t, err)
}

func TestRunnerReturnsFnErrorWithoutCommit(t *testing.T) {
	runner := NewRunner(testStore())
	boom := errors.New("boom")

	err := runner.RunInTransaction(context.Background(), func(tx ports.Tx[string, catalog.Artist]) error {
		if err := tx.Put(context.Background(), "artist#42", catalog.Artist{ID: "42", Name: "X"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunnerRejectsOversizedTransaction(t *testing.T) {
	runner := NewRunner(testStore())

	err := runner.RunInTransaction(context.Background(), func(tx ports.Tx[string, catalog.Artist]) error {
		for i := 0; i <= maxTransactItems; i++ {
			key := fmt.Sprintf("artist#%d", i)
			if err := tx.Put(context.Background(), key, catalog.Artist{ID: key, Name: "X"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}
