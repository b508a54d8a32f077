// Package repositories maps entities onto the single-table document store.
// Every key comes from domain/keys; every update is fetch-then-merge.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"chatapi/application/ports"
	"chatapi/domain/keys"
	"chatapi/pkg/common"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// AttrSearchText holds the lowercased text matched by case-insensitive
// substring search.
const AttrSearchText = "searchText"

// Deps are the collaborators shared by every repository.
type Deps struct {
	Store  ports.DocumentStore
	Clock  ports.Clock
	IDs    ports.IDGenerator
	Logger *zap.Logger
}

type base struct {
	store  ports.DocumentStore
	clock  ports.Clock
	ids    ports.IDGenerator
	logger *zap.Logger
	kind   keys.Kind
}

func newBase(d Deps, kind keys.Kind) base {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{store: d.Store, clock: d.Clock, ids: d.IDs, logger: logger.With(zap.String("entity", kind.String())), kind: kind}
}

func (b base) now() int64 {
	return b.clock.Now().Unix()
}

func stringValue(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

// toItem marshals v and attaches the key, discriminator and extra string
// attributes.
func (b base) toItem(v interface{}, key keys.Key, extra map[string]string) (ports.Item, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", b.kind, err)
	}
	item[keys.AttrPK] = stringValue(key.PK)
	item[keys.AttrSK] = stringValue(key.SK)
	item[keys.AttrEntityType] = stringValue(b.kind.String())
	for name, value := range extra {
		item[name] = stringValue(value)
	}
	return item, nil
}

func fromItem[T any](item ports.Item) (*T, error) {
	var out T
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &out, nil
}

// getEntity reads one entity. It returns nil without error when absent.
func getEntity[T any](ctx context.Context, b base, key keys.Key) (*T, error) {
	item, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", b.kind, err)
	}
	if item == nil {
		return nil, nil
	}
	return fromItem[T](item)
}

// partitionQuery selects every entity of b's kind in partition pk.
func (b base) partitionQuery(pk string, filters ...ports.Filter) ports.Query {
	return ports.Query{
		PartitionKey:  pk,
		SortKeyPrefix: keys.SortPrefix(b.kind),
		Filters:       append([]ports.Filter{b.kindFilter()}, filters...),
	}
}

func (b base) kindFilter() ports.Filter {
	return ports.Filter{Attribute: keys.AttrEntityType, Op: ports.FilterEquals, Value: b.kind.String()}
}

// queryPage runs one page of q starting after cursor. The returned
// NextToken is the id of the last evaluated item and is nil once the store
// reports nothing further.
func queryPage[T any](ctx context.Context, b base, q ports.Query, cursor string) (common.Page[T], error) {
	if err := common.ValidateCursor(cursor); err != nil {
		return common.Page[T]{}, err
	}
	if cursor != "" {
		q.ExclusiveStartKey = ports.Item{
			keys.AttrPK: stringValue(q.PartitionKey),
			keys.AttrSK: stringValue(q.SortKeyPrefix + cursor),
		}
	}

	res, err := b.store.Query(ctx, q)
	if err != nil {
		return common.Page[T]{}, fmt.Errorf("failed to query %s: %w", b.kind, err)
	}

	page := common.Page[T]{Items: make([]T, 0, len(res.Items))}
	for _, item := range res.Items {
		v, err := fromItem[T](item)
		if err != nil {
			return common.Page[T]{}, err
		}
		page.Items = append(page.Items, *v)
	}

	if res.LastEvaluatedKey != nil {
		sk, ok := res.LastEvaluatedKey[keys.AttrSK].(*types.AttributeValueMemberS)
		if !ok {
			return common.Page[T]{}, errors.New("store returned a continuation key without SK")
		}
		_, id, err := keys.ParseSortKey(sk.Value)
		if err != nil {
			return common.Page[T]{}, err
		}
		page.NextToken = &id
	}
	return page, nil
}

// queryAll follows continuation keys until the store is exhausted.
func queryAll[T any](ctx context.Context, b base, q ports.Query) ([]T, error) {
	var out []T
	for {
		res, err := b.store.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", b.kind, err)
		}
		for _, item := range res.Items {
			v, err := fromItem[T](item)
			if err != nil {
				return nil, err
			}
			out = append(out, *v)
		}
		if res.LastEvaluatedKey == nil {
			return out, nil
		}
		q.ExclusiveStartKey = res.LastEvaluatedKey
	}
}

func (b base) delete(ctx context.Context, key keys.Key) error {
	if err := b.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", b.kind, err)
	}
	b.logger.Debug("Deleted item", zap.String("PK", key.PK), zap.String("SK", key.SK))
	return nil
}

func (b base) put(ctx context.Context, item ports.Item) error {
	if err := b.store.Put(ctx, item); err != nil {
		return fmt.Errorf("failed to save %s: %w", b.kind, err)
	}
	return nil
}

// create writes a new item, mapping a taken key to errDuplicate.
func (b base) create(ctx context.Context, item ports.Item, errDuplicate error) error {
	if err := b.store.Create(ctx, item); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return errDuplicate
		}
		return fmt.Errorf("failed to create %s: %w", b.kind, err)
	}
	return nil
}
