package services

import (
	"context"

	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

// CreateUserInput is the administrator form for new accounts.
type CreateUserInput struct {
	Name     string        `json:"name"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=5"`
	Role     entities.Role `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// UpdateUserInput edits any account. Role changes are admin-only.
type UpdateUserInput struct {
	Email    *string        `json:"email,omitempty" validate:"omitempty,email"`
	Name     *string        `json:"name,omitempty"`
	Phone    *string        `json:"phone,omitempty"`
	Avatar   *string        `json:"avatar,omitempty"`
	Role     *entities.Role `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	Password *string        `json:"password,omitempty"`
}

// UserService is the account administration surface.
type UserService struct {
	users  *repositories.UserRepository
	cache  ports.UserCache
	logger *zap.Logger
}

func NewUserService(users *repositories.UserRepository, cache ports.UserCache, logger *zap.Logger) *UserService {
	return &UserService{users: users, cache: cache, logger: logger}
}

// List pages through every account. Administrators only.
func (s *UserService) List(ctx context.Context, cursor string) (common.Page[entities.User], error) {
	if _, err := authz.RequireAdmin(ctx); err != nil {
		return common.Page[entities.User]{}, err
	}
	return s.users.List(ctx, cursor)
}

// Get returns the caller's own account, or any account for an administrator.
func (s *UserService) Get(ctx context.Context, id string) (*entities.User, error) {
	if _, err := authz.RequireMutate(ctx, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Create adds an account on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*entities.User, error) {
	admin, err := authz.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, repositories.NewUser{
		Email:    in.Email,
		Password: in.Password,
		Role:     entities.ParseRole(string(in.Role)),
		Name:     in.Name,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("userID", user.ID), zap.String("by", admin.UserID))
	return user, nil
}

// Update edits an account. Users may edit themselves; only administrators
// may edit others or change a role.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*entities.User, error) {
	p, err := authz.RequireMutate(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && !authz.IsAdministrator(p) {
		return nil, apperrors.NewForbiddenError("only administrators can change roles")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	patch := entities.UserPatch{
		Email:  in.Email,
		Name:   in.Name,
		Phone:  in.Phone,
		Avatar: in.Avatar,
		Role:   in.Role,
	}
	if in.Password != nil {
		hash, err := s.users.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

// Delete removes an account. Administrators only; unknown ids are NotFound.
func (s *UserService) Delete(ctx context.Context, id string) error {
	admin, err := authz.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("User deleted", zap.String("userID", id), zap.String("by", admin.UserID))
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate cached user", zap.String("userID", id), zap.Error(err))
	}
}
