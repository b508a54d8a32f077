// Package services exposes the operations of the API. Every method resolves
// the caller from the context, checks ownership or role, and only then
// touches a repository or cascade.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	"chatapi/domain/events"
	"chatapi/pkg/auth"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

// AuthPayload is returned by every flow that hands out a token.
type AuthPayload struct {
	User  *entities.User `json:"user"`
	Token string         `json:"token"`
}

// RegisterInput is the self-service signup form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

// UpdateAccountInput changes the caller's own profile. NewPassword requires
// CurrentPassword.
type UpdateAccountInput struct {
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Name            *string `json:"name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Avatar          *string `json:"avatar,omitempty"`
	CurrentPassword string  `json:"currentPassword,omitempty"`
	NewPassword     string  `json:"newPassword,omitempty"`
}

// LoginThrottle bounds login attempts per email.
type LoginThrottle struct {
	Limiter auth.RateLimiter
	Limit   int
	Window  time.Duration
}

// AuthService handles registration, login and principal resolution.
type AuthService struct {
	users     *repositories.UserRepository
	hasher    ports.PasswordHasher
	issuer    ports.TokenIssuer
	verifier  ports.IdentityVerifier
	cache     ports.UserCache
	throttle  LoginThrottle
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repositories.UserRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	verifier ports.IdentityVerifier,
	cache ports.UserCache,
	throttle LoginThrottle,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		verifier:  verifier,
		cache:     cache,
		throttle:  throttle,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func (s *AuthService) payload(user *entities.User) (*AuthPayload, error) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue token")
	}
	return &AuthPayload{User: user, Token: token}, nil
}

// Register creates a regular user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthPayload, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, repositories.NewUser{
		Email:    in.Email,
		Password: in.Password,
		Role:     entities.RoleUser,
		Name:     in.Name,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("userID", user.ID))
	if err := s.publisher.Publish(ctx, events.NewUserRegistered(user.ID, user.Email, s.clock.Now())); err != nil {
		s.logger.Warn("Failed to publish user registration", zap.Error(err))
	}
	return s.payload(user)
}

// Login checks the credentials. Unknown emails and wrong passwords are the
// same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if limiter := s.throttle.Limiter; limiter != nil {
		allowed, err := limiter.Allow(ctx, "login:"+email)
		if err != nil {
			return nil, apperrors.Wrap(err, "rate limiter unavailable")
		}
		if !allowed {
			return nil, apperrors.NewRateLimitError(s.throttle.Limit, s.throttle.Window.String())
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	if limiter := s.throttle.Limiter; limiter != nil {
		if err := limiter.Reset(ctx, "login:"+email); err != nil {
			s.logger.Warn("Failed to reset login throttle", zap.String("userID", user.ID), zap.Error(err))
		}
	}
	return s.payload(user)
}

// Viewer returns the caller with a fresh token.
func (s *AuthService) Viewer(ctx context.Context) (*AuthPayload, error) {
	p, err := authz.Require(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.payload(user)
}

// UpdateMyAccount edits the caller's own profile in a single write. The
// role is never touched here; a password change needs the current password.
func (s *AuthService) UpdateMyAccount(ctx context.Context, in UpdateAccountInput) (*AuthPayload, error) {
	p, err := authz.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	patch := entities.UserPatch{
		Email:  in.Email,
		Name:   in.Name,
		Phone:  in.Phone,
		Avatar: in.Avatar,
	}
	if in.NewPassword != "" {
		current, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.hasher.Compare(current.PasswordHash, in.CurrentPassword); err != nil {
			return nil, apperrors.NewUnauthorizedError("current password is incorrect")
		}
		hash, err := s.users.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	user, err := s.users.Update(ctx, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	return s.payload(user)
}

// ResolvePrincipal verifies a bearer token and loads the user it names.
// Tokens of deleted users are rejected.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*authz.Principal, error) {
	userID, err := s.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.NewUnauthorizedError("token expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}

	if s.cache != nil {
		if user, ok := s.cache.Get(ctx, userID); ok {
			return authz.PrincipalFromUser(user), nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) || apperrors.IsInvalidKey(err) {
			return nil, apperrors.NewUnauthorizedError("invalid token")
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			s.logger.Warn("Failed to cache user", zap.String("userID", user.ID), zap.Error(err))
		}
	}
	return authz.PrincipalFromUser(user), nil
}

func (s *AuthService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate cached user", zap.String("userID", userID), zap.Error(err))
	}
}
