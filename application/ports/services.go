package ports

import (
	"context"
	"time"

	"chatapi/domain/entities"
	"chatapi/domain/events"
)

// ObjectStore issues time-limited URLs for attachments.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	GetContent(ctx context.Context, key string) ([]byte, error)
}

// SecretProvider resolves named secrets. It is consulted once at startup.
type SecretProvider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// IdentityVerifier turns a bearer token into the user id it was issued for.
type IdentityVerifier interface {
	Verify(token string) (string, error)
}

// TokenIssuer signs bearer tokens for a user.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// UserCache holds recently resolved users for token verification.
type UserCache interface {
	Get(ctx context.Context, userID string) (*entities.User, bool)
	Set(ctx context.Context, user *entities.User) error
	Invalidate(ctx context.Context, userID string) error
}

// Metrics records operational counters. Implementations never fail the
// caller.
type Metrics interface {
	RecordLatency(ctx context.Context, operation string, d time.Duration)
	RecordError(ctx context.Context, operation, errorType string)
	RecordCascadeFailure(ctx context.Context, cascade, step string)
}

type Clock interface {
	Now() time.Time
}

// IDGenerator returns lexicographically sortable, time-ordered ids.
type IDGenerator interface {
	NewID() string
}
