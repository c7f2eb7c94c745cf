// Package storage implements the external collaborators of the gateway: the
// DynamoDB table resolving function ids to runtime and code location, and the
// S3 bucket holding uploaded code. Both are thin clients; retries and
// failure handling live with the AWS SDK and the callers.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/warpfn/gateway/internal/core"
)

// dynamoAPI is the slice of the DynamoDB client the store uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// FunctionStore persists function records in a DynamoDB table keyed by
// functionId.
type FunctionStore struct {
	client dynamoAPI
	table  string
}

// NewFunctionStore creates a FunctionStore on the given table.
func NewFunctionStore(client *dynamodb.Client, table string) *FunctionStore {
	return newFunctionStore(client, table)
}

func newFunctionStore(client dynamoAPI, table string) *FunctionStore {
	return &FunctionStore{client: client, table: table}
}

// Put stores a function record.
func (s *FunctionStore) Put(ctx context.Context, rec *core.FunctionRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal function record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put function %s: %w", rec.FunctionID, err)
	}
	return nil
}

// Get resolves a function id to its record, or core.ErrFunctionNotFound.
func (s *FunctionStore) Get(ctx context.Context, functionID string) (*core.FunctionRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"functionId": &types.AttributeValueMemberS{Value: functionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get function %s: %w", functionID, err)
	}
	if len(out.Item) == 0 {
		return nil, core.ErrFunctionNotFound
	}

	var rec core.FunctionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal function record: %w", err)
	}
	return &rec, nil
}
