package authz

import (
	"context"
	"testing"

	"chatapi/domain/entities"
	apperrors "chatapi/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &Principal{UserID: "alice", Role: entities.RoleUser}
	bob   = &Principal{UserID: "bob", Role: entities.RoleUser}
	root  = &Principal{UserID: "root", Role: entities.RoleAdmin}
)

func TestPredicates(t *testing.T) {
	assert.True(t, IsOwner(alice, "alice"))
	assert.False(t, IsOwner(alice, "bob"))
	assert.False(t, IsOwner(alice, ""))
	assert.False(t, IsOwner(nil, "alice"))

	assert.True(t, IsAdministrator(root))
	assert.False(t, IsAdministrator(alice))

	assert.True(t, CanMutate(alice, "alice"))
	assert.False(t, CanMutate(bob, "alice"))
	assert.True(t, CanMutate(root, "alice"))
}

func TestRequireAnonymous(t *testing.T) {
	_, err := Require(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRequireMutate(t *testing.T) {
	_, err := RequireMutate(WithPrincipal(context.Background(), bob), "alice")
	assert.True(t, apperrors.IsUnauthorized(err))

	p, err := RequireMutate(WithPrincipal(context.Background(), root), "alice")
	require.NoError(t, err)
	assert.Equal(t, "root", p.UserID)
}

func TestResolveOwner(t *testing.T) {
	ctx := WithPrincipal(context.Background(), alice)

	_, owner, err := ResolveOwner(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, _, err = ResolveOwner(ctx, "bob")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, owner, err = ResolveOwner(WithPrincipal(context.Background(), root), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(WithPrincipal(context.Background(), alice))
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = RequireAdmin(WithPrincipal(context.Background(), root))
	assert.NoError(t, err)
}
