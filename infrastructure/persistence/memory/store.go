// Package memory is an in-process DocumentStore with the same paging and
// filtering behaviour as the DynamoDB store. It backs STORE_DRIVER=memory
// and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"chatapi/application/ports"
	"chatapi/domain/keys"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names a store call for fault injection.
type Operation string

const (
	OpGet         Operation = "Get"
	OpQuery       Operation = "Query"
	OpPut         Operation = "Put"
	OpCreate      Operation = "Create"
	OpDelete      Operation = "Delete"
	OpBatchDelete Operation = "BatchDelete"
)

type fault struct {
	op    Operation
	match string
	err   error
}

// Store implements ports.DocumentStore in memory.
type Store struct {
	mu       sync.RWMutex
	items    map[string]map[string]ports.Item
	pageSize int
	faults   []fault
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize caps the items evaluated per Query call, like DynamoDB's
// 1 MB page. Zero means unbounded.
func WithPageSize(n int) Option {
	return func(s *Store) { s.pageSize = n }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{items: make(map[string]map[string]ports.Item)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailOn makes every later op whose sort key (or partition, for queries)
// equals match return err. An empty match fails every call of op.
func (s *Store) FailOn(op Operation, match string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{op: op, match: match, err: err})
}

// ClearFaults removes every injected failure.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, part := range s.items {
		n += len(part)
	}
	return n
}

func (s *Store) injected(op Operation, key string) error {
	for _, f := range s.faults {
		if f.op == op && (f.match == "" || f.match == key) {
			return f.err
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key keys.Key) (ports.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.injected(OpGet, key.SK); err != nil {
		return nil, err
	}
	item, ok := s.items[key.PK][key.SK]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (s *Store) Put(ctx context.Context, item ports.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pk, sk, err := itemKey(item)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpPut, sk); err != nil {
		return err
	}
	s.put(pk, sk, item)
	return nil
}

func (s *Store) Create(ctx context.Context, item ports.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pk, sk, err := itemKey(item)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpCreate, sk); err != nil {
		return err
	}
	if _, exists := s.items[pk][sk]; exists {
		return ports.ErrDuplicateKey
	}
	s.put(pk, sk, item)
	return nil
}

func (s *Store) put(pk, sk string, item ports.Item) {
	part, ok := s.items[pk]
	if !ok {
		part = make(map[string]ports.Item)
		s.items[pk] = part
	}
	part[sk] = copyItem(item)
}

func (s *Store) Delete(ctx context.Context, key keys.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpDelete, key.SK); err != nil {
		return err
	}
	s.remove(key.PK, key.SK)
	return nil
}

func (s *Store) BatchDelete(ctx context.Context, partitionKey string, sortKeys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpBatchDelete, partitionKey); err != nil {
		return err
	}
	for _, sk := range sortKeys {
		s.remove(partitionKey, sk)
	}
	return nil
}

func (s *Store) remove(pk, sk string) {
	part, ok := s.items[pk]
	if !ok {
		return
	}
	delete(part, sk)
	if len(part) == 0 {
		delete(s.items, pk)
	}
}

type candidate struct {
	pk, sk string
	// order is the position used for sorting and start-key comparison.
	order []string
	item  ports.Item
}

func (s *Store) Query(ctx context.Context, q ports.Query) (ports.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.QueryResult{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.injected(OpQuery, q.PartitionKey); err != nil {
		return ports.QueryResult{}, err
	}

	cands, err := s.candidates(q)
	if err != nil {
		return ports.QueryResult{}, err
	}

	if q.ExclusiveStartKey != nil {
		start, err := startPosition(q, q.ExclusiveStartKey)
		if err != nil {
			return ports.QueryResult{}, err
		}
		idx := sort.Search(len(cands), func(i int) bool { return comparePos(cands[i].order, start) > 0 })
		cands = cands[idx:]
	}

	limit := int(q.Limit)
	if limit <= 0 || (s.pageSize > 0 && limit > s.pageSize) {
		limit = s.pageSize
	}

	var result ports.QueryResult
	evaluated := cands
	if limit > 0 && len(cands) > limit {
		evaluated = cands[:limit]
	}
	for _, c := range evaluated {
		ok, err := matchAll(c.item, q.Filters)
		if err != nil {
			return ports.QueryResult{}, err
		}
		if ok {
			result.Items = append(result.Items, copyItem(c.item))
		}
	}
	if len(evaluated) < len(cands) {
		result.LastEvaluatedKey = lastKey(q, evaluated[len(evaluated)-1])
	}
	return result, nil
}

func (s *Store) candidates(q ports.Query) ([]candidate, error) {
	var out []candidate
	switch {
	case q.Scan:
		for pk, part := range s.items {
			for sk, item := range part {
				out = append(out, candidate{pk: pk, sk: sk, order: []string{pk, sk}, item: item})
			}
		}
	case q.IndexName == keys.EmailIndex:
		for pk, part := range s.items {
			for sk, item := range part {
				gpk, _ := stringAttr(item, keys.AttrGSI1PK)
				if gpk != q.PartitionKey {
					continue
				}
				gsk, _ := stringAttr(item, keys.AttrGSI1SK)
				if !strings.HasPrefix(gsk, q.SortKeyPrefix) {
					continue
				}
				out = append(out, candidate{pk: pk, sk: sk, order: []string{gsk, pk, sk}, item: item})
			}
		}
	case q.IndexName != "":
		return nil, fmt.Errorf("unknown index %q", q.IndexName)
	default:
		if q.PartitionKey == "" {
			return nil, fmt.Errorf("query requires a partition key")
		}
		for sk, item := range s.items[q.PartitionKey] {
			if !strings.HasPrefix(sk, q.SortKeyPrefix) {
				continue
			}
			out = append(out, candidate{pk: q.PartitionKey, sk: sk, order: []string{sk}, item: item})
		}
	}
	sort.Slice(out, func(i, j int) bool { return comparePos(out[i].order, out[j].order) < 0 })
	return out, nil
}

func startPosition(q ports.Query, start ports.Item) ([]string, error) {
	pk, sk, err := itemKey(start)
	if err != nil {
		return nil, fmt.Errorf("invalid exclusive start key: %w", err)
	}
	switch {
	case q.Scan:
		return []string{pk, sk}, nil
	case q.IndexName != "":
		gsk, _ := stringAttr(start, keys.AttrGSI1SK)
		return []string{gsk, pk, sk}, nil
	default:
		return []string{sk}, nil
	}
}

func lastKey(q ports.Query, c candidate) ports.Item {
	key := ports.Item{
		keys.AttrPK: &types.AttributeValueMemberS{Value: c.pk},
		keys.AttrSK: &types.AttributeValueMemberS{Value: c.sk},
	}
	if q.IndexName != "" {
		for _, attr := range []string{keys.AttrGSI1PK, keys.AttrGSI1SK} {
			if v, ok := c.item[attr]; ok {
				key[attr] = v
			}
		}
	}
	return key
}

func comparePos(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func matchAll(item ports.Item, filters []ports.Filter) (bool, error) {
	for _, f := range filters {
		ok, err := match(item[f.Attribute], f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(av types.AttributeValue, f ports.Filter) (bool, error) {
	if av == nil {
		return false, nil
	}
	switch f.Op {
	case ports.FilterEquals:
		return equals(av, f.Value), nil
	case ports.FilterContains:
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			needle, ok := f.Value.(string)
			return ok && strings.Contains(v.Value, needle), nil
		case *types.AttributeValueMemberSS:
			for _, el := range v.Value {
				if el == f.Value {
					return true, nil
				}
			}
			return false, nil
		case *types.AttributeValueMemberL:
			for _, el := range v.Value {
				if equals(el, f.Value) {
					return true, nil
				}
			}
			return false, nil
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported filter op %d", f.Op)
}

func equals(av types.AttributeValue, want interface{}) bool {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		s, ok := want.(string)
		return ok && v.Value == s
	case *types.AttributeValueMemberBOOL:
		b, ok := want.(bool)
		return ok && v.Value == b
	case *types.AttributeValueMemberN:
		switch n := want.(type) {
		case int:
			return v.Value == strconv.Itoa(n)
		case int64:
			return v.Value == strconv.FormatInt(n, 10)
		case string:
			return v.Value == n
		}
	}
	return false
}

func itemKey(item ports.Item) (string, string, error) {
	pk, ok := stringAttr(item, keys.AttrPK)
	if !ok || pk == "" {
		return "", "", fmt.Errorf("item is missing %s", keys.AttrPK)
	}
	sk, ok := stringAttr(item, keys.AttrSK)
	if !ok || sk == "" {
		return "", "", fmt.Errorf("item is missing %s", keys.AttrSK)
	}
	return pk, sk, nil
}

func stringAttr(item ports.Item, name string) (string, bool) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func copyItem(item ports.Item) ports.Item {
	out := make(ports.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
