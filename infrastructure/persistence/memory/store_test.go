package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chatapi/application/ports"
	"chatapi/domain/keys"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(pk, sk string, attrs map[string]types.AttributeValue) ports.Item {
	it := ports.Item{
		keys.AttrPK: &types.AttributeValueMemberS{Value: pk},
		keys.AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
	for k, v := range attrs {
		it[k] = v
	}
	return it
}

func sk(it ports.Item) string {
	return it[keys.AttrSK].(*types.AttributeValueMemberS).Value
}

func TestCreateRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Create(ctx, item("TAG", "TAG#1", nil)))
	err := s.Create(ctx, item("TAG", "TAG#1", nil))

	assert.ErrorIs(t, err, ports.ErrDuplicateKey)
	assert.Equal(t, 1, s.Len())
}

func TestGetMissingReturnsNil(t *testing.T) {
	got, err := NewStore().Get(context.Background(), keys.Key{PK: "TAG", SK: "TAG#x"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Put(ctx, item("TAG", "TAG#1", nil)))

	require.NoError(t, s.Delete(ctx, keys.Key{PK: "TAG", SK: "TAG#1"}))
	require.NoError(t, s.Delete(ctx, keys.Key{PK: "TAG", SK: "TAG#1"}))
	assert.Equal(t, 0, s.Len())
}

func TestQueryPagesWithoutGapsOrDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithPageSize(3))
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Put(ctx, item("TOPIC#t", fmt.Sprintf("MESSAGE#%02d", i), nil)))
	}
	require.NoError(t, s.Put(ctx, item("TOPIC#t", "OTHER#1", nil)))

	var seen []string
	q := ports.Query{PartitionKey: "TOPIC#t", SortKeyPrefix: "MESSAGE#"}
	pages := 0
	for {
		res, err := s.Query(ctx, q)
		require.NoError(t, err)
		pages++
		for _, it := range res.Items {
			seen = append(seen, sk(it))
		}
		if res.LastEvaluatedKey == nil {
			break
		}
		q.ExclusiveStartKey = res.LastEvaluatedKey
	}

	assert.Equal(t, 4, pages)
	require.Len(t, seen, 10)
	for i, got := range seen {
		assert.Equal(t, fmt.Sprintf("MESSAGE#%02d", i), got)
	}
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Put(ctx, item("USER#u", "TOPIC#1", map[string]types.AttributeValue{
		"searchText": &types.AttributeValueMemberS{Value: "golang notes"},
		"pinned":     &types.AttributeValueMemberBOOL{Value: true},
		"tagIds": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "g1"},
		}},
	})))
	require.NoError(t, s.Put(ctx, item("USER#u", "TOPIC#2", map[string]types.AttributeValue{
		"searchText": &types.AttributeValueMemberS{Value: "rust"},
		"pinned":     &types.AttributeValueMemberBOOL{Value: false},
	})))

	res, err := s.Query(ctx, ports.Query{PartitionKey: "USER#u", Filters: []ports.Filter{
		{Attribute: "searchText", Op: ports.FilterContains, Value: "lang"},
	}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "TOPIC#1", sk(res.Items[0]))

	res, err = s.Query(ctx, ports.Query{PartitionKey: "USER#u", Filters: []ports.Filter{
		{Attribute: "pinned", Op: ports.FilterEquals, Value: false},
	}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "TOPIC#2", sk(res.Items[0]))

	res, err = s.Query(ctx, ports.Query{Scan: true, Filters: []ports.Filter{
		{Attribute: "tagIds", Op: ports.FilterContains, Value: "g1"},
	}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "TOPIC#1", sk(res.Items[0]))
}

func TestQueryEmailIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Put(ctx, item("USER", "USER#1", map[string]types.AttributeValue{
		keys.AttrGSI1PK: &types.AttributeValueMemberS{Value: "USER#a@b.co"},
		keys.AttrGSI1SK: &types.AttributeValueMemberS{Value: "USER#1"},
	})))

	res, err := s.Query(ctx, ports.Query{IndexName: keys.EmailIndex, PartitionKey: "USER#a@b.co"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	res, err = s.Query(ctx, ports.Query{IndexName: keys.EmailIndex, PartitionKey: "USER#z@b.co"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestBatchDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, k := range []string{"MESSAGE#1", "MESSAGE#2", "MESSAGE#3"} {
		require.NoError(t, s.Put(ctx, item("TOPIC#t", k, nil)))
	}

	require.NoError(t, s.BatchDelete(ctx, "TOPIC#t", []string{"MESSAGE#2", "MESSAGE#3", "MESSAGE#9"}))
	assert.Equal(t, 1, s.Len())
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	s.FailOn(OpPut, "TOPIC#2", boom)

	assert.NoError(t, s.Put(ctx, item("USER#u", "TOPIC#1", nil)))
	assert.ErrorIs(t, s.Put(ctx, item("USER#u", "TOPIC#2", nil)), boom)

	s.ClearFaults()
	assert.NoError(t, s.Put(ctx, item("USER#u", "TOPIC#2", nil)))
}
