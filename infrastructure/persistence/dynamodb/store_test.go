package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chatapi/application/ports"
	"chatapi/domain/keys"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut      *dynamodb.GetItemOutput
	putErr      error
	queryInput  *dynamodb.QueryInput
	scanInput   *dynamodb.ScanInput
	putInputs   []*dynamodb.PutItemInput
	batchInputs []*dynamodb.BatchWriteItemInput
	unprocessed bool
}

func (f *fakeAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryInput = in
	return &dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{{"PK": &types.AttributeValueMemberS{Value: "TAG"}}},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "TAG"}},
	}, nil
}

func (f *fakeAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanInput = in
	return &dynamodb.ScanOutput{}, nil
}

func (f *fakeAPI) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batchInputs = append(f.batchInputs, in)
	out := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessed {
		reqs := in.RequestItems["chat"]
		out.UnprocessedItems = map[string][]types.WriteRequest{"chat": reqs[:1]}
	}
	return out, nil
}

func newTestStore(api *fakeAPI) *Store {
	return NewStore(api, "chat", observability.NewTracer("test", false), nil)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := newTestStore(&fakeAPI{})

	item, err := store.Get(context.Background(), keys.Key{PK: "TAG", SK: "TAG#x"})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCreateMapsConditionFailure(t *testing.T) {
	api := &fakeAPI{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
	store := newTestStore(api)

	err := store.Create(context.Background(), ports.Item{"PK": &types.AttributeValueMemberS{Value: "TAG"}})
	assert.ErrorIs(t, err, ports.ErrDuplicateKey)

	require.Len(t, api.putInputs, 1)
	require.NotNil(t, api.putInputs[0].ConditionExpression)
	assert.Contains(t, *api.putInputs[0].ConditionExpression, "attribute_not_exists")
}

func TestCreateWrapsOtherErrors(t *testing.T) {
	cause := errors.New("throttled")
	store := newTestStore(&fakeAPI{putErr: cause})

	err := store.Create(context.Background(), ports.Item{})
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ports.ErrDuplicateKey)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))
}

func TestQueryBuildsKeyConditionAndFilters(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	res, err := store.Query(context.Background(), ports.Query{
		PartitionKey:  "USER#u1",
		SortKeyPrefix: "TOPIC#",
		Filters: []ports.Filter{
			{Attribute: "pinned", Op: ports.FilterEquals, Value: true},
			{Attribute: "searchText", Op: ports.FilterContains, Value: "go"},
		},
		Limit: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.NotNil(t, res.LastEvaluatedKey)

	in := api.queryInput
	require.NotNil(t, in)
	require.NotNil(t, in.KeyConditionExpression)
	assert.Contains(t, *in.KeyConditionExpression, "begins_with")
	require.NotNil(t, in.FilterExpression)
	assert.Contains(t, *in.FilterExpression, "contains")
	assert.Equal(t, int32(5), aws.ToInt32(in.Limit))
	assert.Nil(t, in.IndexName)

	var names []string
	for _, n := range in.ExpressionAttributeNames {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"PK", "SK", "pinned", "searchText"}, names)
}

func TestQueryOnEmailIndexUsesIndexKeys(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	_, err := store.Query(context.Background(), ports.Query{
		IndexName:    keys.EmailIndex,
		PartitionKey: keys.EmailIndexKey("a@b.c"),
	})
	require.NoError(t, err)
	assert.Equal(t, keys.EmailIndex, aws.ToString(api.queryInput.IndexName))

	var names []string
	for _, n := range api.queryInput.ExpressionAttributeNames {
		names = append(names, n)
	}
	assert.Equal(t, []string{"GSI1PK"}, names)
}

func TestQueryWithoutPartitionFails(t *testing.T) {
	_, err := newTestStore(&fakeAPI{}).Query(context.Background(), ports.Query{})
	assert.Error(t, err)
}

func TestScanWithoutFilters(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	_, err := store.Query(context.Background(), ports.Query{Scan: true})
	require.NoError(t, err)
	require.NotNil(t, api.scanInput)
	assert.Nil(t, api.scanInput.FilterExpression)
	assert.Nil(t, api.queryInput)
}

func TestContainsFilterNeedsString(t *testing.T) {
	_, err := newTestStore(&fakeAPI{}).Query(context.Background(), ports.Query{
		Scan:    true,
		Filters: []ports.Filter{{Attribute: "n", Op: ports.FilterContains, Value: 3}},
	})
	assert.Error(t, err)
}

func sortKeys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("MESSAGE#%03d", i)
	}
	return out
}

func TestBatchDeleteChunks(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	require.NoError(t, store.BatchDelete(context.Background(), "TOPIC#t1", sortKeys(60)))

	require.Len(t, api.batchInputs, 3)
	sizes := []int{}
	for _, in := range api.batchInputs {
		sizes = append(sizes, len(in.RequestItems["chat"]))
	}
	assert.Equal(t, []int{25, 25, 10}, sizes)
}

func TestBatchDeleteReportsUnprocessed(t *testing.T) {
	api := &fakeAPI{unprocessed: true}
	store := newTestStore(api)

	err := store.BatchDelete(context.Background(), "TOPIC#t1", sortKeys(30))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))
	assert.Len(t, api.batchInputs, 1)
}
