package ports

import (
	"context"
	"errors"

	"chatapi/domain/keys"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrDuplicateKey is returned by DocumentStore.Create when an item with the
// same PK/SK already exists.
var ErrDuplicateKey = errors.New("item already exists")

// Item is a stored document. Both store implementations speak DynamoDB
// attribute values so repositories marshal once.
type Item = map[string]types.AttributeValue

// FilterOp is a server-side filter comparison.
type FilterOp int

const (
	// FilterEquals matches attributes equal to Value.
	FilterEquals FilterOp = iota
	// FilterContains matches string attributes containing Value as a
	// substring, and list or set attributes holding Value as an element.
	FilterContains
)

// Filter narrows query results after key selection. Key attributes cannot
// be filtered on.
type Filter struct {
	Attribute string
	Op        FilterOp
	Value     interface{}
}

// Query selects items by partition (or scans the whole table) and an
// optional sort key prefix. Results come back in ascending sort key order.
type Query struct {
	// IndexName selects a secondary index. Empty means the base table.
	IndexName string
	// PartitionKey is the PK value, or the index partition value when
	// IndexName is set.
	PartitionKey string
	// SortKeyPrefix restricts the sort key with begins_with.
	SortKeyPrefix string
	// Scan reads the whole table instead of one partition.
	Scan              bool
	Filters           []Filter
	ExclusiveStartKey Item
	// Limit caps the number of items evaluated. Zero uses the store default.
	Limit int32
}

// QueryResult is one page of a query.
type QueryResult struct {
	Items []Item
	// LastEvaluatedKey is non-nil when more items may follow.
	LastEvaluatedKey Item
}

// DocumentStore is the narrow contract over the single-table store. No
// implementation retries: failures surface to the caller as-is.
type DocumentStore interface {
	// Get returns the item at key, or nil when it does not exist.
	Get(ctx context.Context, key keys.Key) (Item, error)
	Query(ctx context.Context, q Query) (QueryResult, error)
	// Put upserts the item.
	Put(ctx context.Context, item Item) error
	// Create writes the item only if its key is free, else ErrDuplicateKey.
	Create(ctx context.Context, item Item) error
	// Delete removes the item at key. Deleting a missing item succeeds.
	Delete(ctx context.Context, key keys.Key) error
	// BatchDelete removes every listed sort key from one partition.
	BatchDelete(ctx context.Context, partitionKey string, sortKeys []string) error
}
