// Package authz holds the ownership and role predicates evaluated before
// every mutation.
package authz

import (
	"context"

	"chatapi/domain/entities"
	apperrors "chatapi/pkg/errors"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Role   entities.Role
}

// PrincipalFromUser builds the principal for a stored user.
func PrincipalFromUser(u *entities.User) *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Role: entities.ParseRole(string(u.Role))}
}

type contextKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the principal on ctx, or nil for anonymous callers.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}

// IsAdministrator reports whether p holds the admin role.
func IsAdministrator(p *Principal) bool {
	return p != nil && p.Role == entities.RoleAdmin
}

// IsOwner reports whether p is the user identified by ownerID. For
// partition-scoped entities ownerID is the id embedded in USER#<id>; for
// global ones it is the userId field.
func IsOwner(p *Principal, ownerID string) bool {
	return p != nil && ownerID != "" && p.UserID == ownerID
}

// CanMutate is the gate for every write: owner or administrator.
func CanMutate(p *Principal, ownerID string) bool {
	return IsOwner(p, ownerID) || IsAdministrator(p)
}

// Require returns the principal on ctx or an Unauthorized error.
func Require(ctx context.Context) (*Principal, error) {
	p := PrincipalFrom(ctx)
	if p == nil || p.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("")
	}
	return p, nil
}

// RequireMutate checks that the caller may change an entity owned by ownerID.
func RequireMutate(ctx context.Context, ownerID string) (*Principal, error) {
	p, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if !CanMutate(p, ownerID) {
		return nil, apperrors.NewForbiddenError("")
	}
	return p, nil
}

// RequireAdmin checks that the caller is an administrator.
func RequireAdmin(ctx context.Context) (*Principal, error) {
	p, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if !IsAdministrator(p) {
		return nil, apperrors.NewForbiddenError("administrator role required")
	}
	return p, nil
}

// ResolveOwner picks the owner an owner-scoped operation acts on: the
// requested owner when given, else the caller. Acting on someone else's
// partition requires the admin role.
func ResolveOwner(ctx context.Context, requested string) (*Principal, string, error) {
	p, err := Require(ctx)
	if err != nil {
		return nil, "", err
	}
	if requested == "" || requested == p.UserID {
		return p, p.UserID, nil
	}
	if !IsAdministrator(p) {
		return nil, "", apperrors.NewForbiddenError("")
	}
	return p, requested, nil
}
