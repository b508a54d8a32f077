package utils

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UUIDv7Generator issues RFC 9562 version 7 UUIDs. Their canonical text
// sorts in creation order, which message truncation and cursor paging
// depend on.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator issues prefix-000001, prefix-000002, ... for tests.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
