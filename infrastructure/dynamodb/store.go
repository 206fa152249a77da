// Package dynamodb implements the KeyedStore and TransactionRunner ports on
// a single DynamoDB table. Entries live under PK "<keyspace>#<key>" with a
// fixed SK, so several keyspaces can share one table.
package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	entrySK = "ENTRY"

	// DynamoDB request limits.
	batchGetLimit   = 100
	batchWriteLimit = 25
	maxBatchRetries = 3
)

// Store is a string-keyed KeyedStore over one DynamoDB table keyspace.
type Store[V any] struct {
	client    *dynamodb.Client
	tableName string
	keyspace  string
}

// NewStore creates a store writing under the given table and keyspace.
func NewStore[V any](client *dynamodb.Client, tableName, keyspace string) *Store[V] {
	return &Store[V]{
		client:    client,
		tableName: tableName,
		keyspace:  keyspace,
	}
}

// pk returns the partition key value for a cache key.
func (s *Store[V]) pk(key string) string {
	return s.keyspace + "#" + key
}

// keyFromPK recovers the cache key from a partition key value, reporting
// false for items outside this keyspace.
func (s *Store[V]) keyFromPK(pk string) (string, bool) {
	return strings.CutPrefix(pk, s.keyspace+"#")
}

// itemKey builds the full primary key for a cache key.
func (s *Store[V]) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: s.pk(key)},
		"SK": &types.AttributeValueMemberS{Value: entrySK},
	}
}

// marshalItem converts a value into a table item with the key attributes
// overlaid.
func (s *Store[V]) marshalItem(key string, value V) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: s.pk(key)}
	item["SK"] = &types.AttributeValueMemberS{Value: entrySK}
	return item, nil
}

// unmarshalItem converts a table item back into a value and its cache key.
func (s *Store[V]) unmarshalItem(item map[string]types.AttributeValue) (string, V, error) {
	var value V
	pkAttr, ok := item["PK"].(*types.AttributeValueMemberS)
	if !ok {
		return "", value, fmt.Errorf("item has no string PK attribute")
	}
	key, ok := s.keyFromPK(pkAttr.Value)
	if !ok {
		return "", value, fmt.Errorf("item PK %q outside keyspace %q", pkAttr.Value, s.keyspace)
	}
	if err := attributevalue.UnmarshalMap(item, &value); err != nil {
		return "", value, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return key, value, nil
}

// Get returns the entry for key, reporting whether it was present.
func (s *Store[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(key),
	})
	if err != nil {
		return zero, false, fmt.Errorf("failed to get entry: %w", err)
	}
	if result.Item == nil {
		return zero, false, nil
	}
	_, value, err := s.unmarshalItem(result.Item)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// GetAll returns the present entries for the given keys, chunked under the
// BatchGetItem limit. Unprocessed keys are retried a few times before the
// call fails.
func (s *Store[V]) GetAll(ctx context.Context, keys []string) (map[string]V, error) {
	out := make(map[string]V, len(keys))
	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		itemKeys := make([]map[string]types.AttributeValue, 0, len(chunk))
		for _, key := range chunk {
			itemKeys = append(itemKeys, s.itemKey(key))
		}
		pending := map[string]types.KeysAndAttributes{
			s.tableName: {Keys: itemKeys},
		}

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == maxBatchRetries {
				return nil, fmt.Errorf("failed to get %d entries after %d attempts",
					len(pending[s.tableName].Keys), attempt)
			}
			result, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get entries: %w", err)
			}
			for _, item := range result.Responses[s.tableName] {
				key, value, err := s.unmarshalItem(item)
				if err != nil {
					return nil, err
				}
				out[key] = value
			}
			pending = result.UnprocessedKeys
		}
	}
	return out, nil
}

// Put inserts or replaces the entry for key.
func (s *Store[V]) Put(ctx context.Context, key string, value V) error {
	item, err := s.marshalItem(key, value)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}
	return nil
}

// PutAll writes all given entries in batches of the BatchWriteItem limit.
func (s *Store[V]) PutAll(ctx context.Context, entries map[string]V) error {
	if len(entries) == 0 {
		return nil
	}
	writeRequests := make([]types.WriteRequest, 0, len(entries))
	for key, value := range entries {
		item, err := s.marshalItem(key, value)
		if err != nil {
			return err
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(writeRequests); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(writeRequests) {
			end = len(writeRequests)
		}
		result, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: writeRequests[start:end],
			},
		})
		if err != nil {
			return fmt.Errorf("failed to batch write entries: %w", err)
		}
		if len(result.UnprocessedItems) > 0 {
			return fmt.Errorf("failed to write %d entries",
				len(result.UnprocessedItems[s.tableName]))
		}
	}
	return nil
}

// Remove deletes the entry for key, reporting whether it was present.
func (s *Store[V]) Remove(ctx context.Context, key string) (bool, error) {
	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.itemKey(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	return len(result.Attributes) > 0, nil
}
