// Package dynamodb implements the document store on a single DynamoDB table.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"chatapi/application/ports"
	"chatapi/domain/keys"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoDB limits BatchWriteItem to 25 requests
const maxBatchWrite = 25

// API is the subset of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Store implements ports.DocumentStore. Calls are never retried here; the
// client is built with a single attempt so failures surface immediately.
type Store struct {
	client    API
	tableName string
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewStore creates a store over tableName.
func NewStore(client API, tableName string, tracer *observability.Tracer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, tableName: tableName, tracer: tracer, logger: logger}
}

func (s *Store) trace(ctx context.Context, op string, fn func(context.Context) error) error {
	return s.tracer.TraceFunction(ctx, "dynamodb."+op, fn)
}

func keyItem(key keys.Key) ports.Item {
	return ports.Item{
		keys.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		keys.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func (s *Store) Get(ctx context.Context, key keys.Key) (ports.Item, error) {
	var item ports.Item
	err := s.trace(ctx, "GetItem", func(ctx context.Context) error {
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key:       keyItem(key),
		})
		if err != nil {
			return apperrors.NewDatabaseError("GetItem", err)
		}
		if len(out.Item) > 0 {
			item = out.Item
		}
		return nil
	})
	return item, err
}

func (s *Store) Put(ctx context.Context, item ports.Item) error {
	return s.trace(ctx, "PutItem", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      item,
		})
		if err != nil {
			return apperrors.NewDatabaseError("PutItem", err)
		}
		return nil
	})
}

// Create writes item only when no item has its key.
func (s *Store) Create(ctx context.Context, item ports.Item) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(keys.AttrPK).AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	return s.trace(ctx, "PutItem", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.tableName),
			Item:                     item,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		})
		if err != nil {
			var conditionalCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &conditionalCheckFailed) {
				return ports.ErrDuplicateKey
			}
			return apperrors.NewDatabaseError("PutItem", err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, key keys.Key) error {
	return s.trace(ctx, "DeleteItem", func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       keyItem(key),
		})
		if err != nil {
			return apperrors.NewDatabaseError("DeleteItem", err)
		}
		return nil
	})
}

// BatchDelete removes the sort keys in chunks of 25. Unprocessed items are
// reported as an error rather than retried.
func (s *Store) BatchDelete(ctx context.Context, partitionKey string, sortKeys []string) error {
	for i := 0; i < len(sortKeys); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(sortKeys) {
			end = len(sortKeys)
		}

		requests := make([]types.WriteRequest, 0, end-i)
		for _, sk := range sortKeys[i:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: keyItem(keys.Key{PK: partitionKey, SK: sk})},
			})
		}

		err := s.trace(ctx, "BatchWriteItem", func(ctx context.Context) error {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.tableName: requests},
			})
			if err != nil {
				return apperrors.NewDatabaseError("BatchWriteItem", err)
			}
			if n := len(out.UnprocessedItems[s.tableName]); n > 0 {
				return apperrors.NewDatabaseError("BatchWriteItem", fmt.Errorf("%d of %d items unprocessed", n, len(requests)))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Query runs a key query, or a scan when q.Scan is set.
func (s *Store) Query(ctx context.Context, q ports.Query) (ports.QueryResult, error) {
	expr, hasExpr, err := buildExpression(q)
	if err != nil {
		return ports.QueryResult{}, err
	}

	var res ports.QueryResult
	if q.Scan {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: q.ExclusiveStartKey,
		}
		if hasExpr {
			input.FilterExpression = expr.Filter()
			input.ExpressionAttributeNames = expr.Names()
			input.ExpressionAttributeValues = expr.Values()
		}
		if q.IndexName != "" {
			input.IndexName = aws.String(q.IndexName)
		}
		if q.Limit > 0 {
			input.Limit = aws.Int32(q.Limit)
		}
		err = s.trace(ctx, "Scan", func(ctx context.Context) error {
			out, err := s.client.Scan(ctx, input)
			if err != nil {
				return apperrors.NewDatabaseError("Scan", err)
			}
			res = ports.QueryResult{Items: out.Items, LastEvaluatedKey: out.LastEvaluatedKey}
			return nil
		})
		return res, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         q.ExclusiveStartKey,
		ScanIndexForward:          aws.Bool(true),
	}
	if q.IndexName != "" {
		input.IndexName = aws.String(q.IndexName)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}
	err = s.trace(ctx, "Query", func(ctx context.Context) error {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return apperrors.NewDatabaseError("Query", err)
		}
		res = ports.QueryResult{Items: out.Items, LastEvaluatedKey: out.LastEvaluatedKey}
		return nil
	})
	return res, err
}

// indexKeyNames returns the partition and sort attribute names of index.
func indexKeyNames(index string) (string, string) {
	if index == keys.EmailIndex {
		return keys.AttrGSI1PK, keys.AttrGSI1SK
	}
	return keys.AttrPK, keys.AttrSK
}

func buildExpression(q ports.Query) (expression.Expression, bool, error) {
	builder := expression.NewBuilder()
	used := false

	if !q.Scan {
		if q.PartitionKey == "" {
			return expression.Expression{}, false, errors.New("query needs a partition key")
		}
		pkName, skName := indexKeyNames(q.IndexName)
		keyCond := expression.Key(pkName).Equal(expression.Value(q.PartitionKey))
		if q.SortKeyPrefix != "" {
			keyCond = keyCond.And(expression.Key(skName).BeginsWith(q.SortKeyPrefix))
		}
		builder = builder.WithKeyCondition(keyCond)
		used = true
	}

	if len(q.Filters) > 0 {
		var cond expression.ConditionBuilder
		for i, f := range q.Filters {
			c, err := filterCondition(f)
			if err != nil {
				return expression.Expression{}, false, err
			}
			if i == 0 {
				cond = c
			} else {
				cond = cond.And(c)
			}
		}
		builder = builder.WithFilter(cond)
		used = true
	}

	if !used {
		return expression.Expression{}, false, nil
	}
	expr, err := builder.Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("failed to build expression: %w", err)
	}
	return expr, true, nil
}

func filterCondition(f ports.Filter) (expression.ConditionBuilder, error) {
	name := expression.Name(f.Attribute)
	switch f.Op {
	case ports.FilterEquals:
		return name.Equal(expression.Value(f.Value)), nil
	case ports.FilterContains:
		s, ok := f.Value.(string)
		if !ok {
			return expression.ConditionBuilder{}, fmt.Errorf("contains filter on %s needs a string value", f.Attribute)
		}
		return name.Contains(s), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("unsupported filter op %d", f.Op)
	}
}
