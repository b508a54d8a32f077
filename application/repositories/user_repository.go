package repositories

import (
	"context"
	"fmt"
	"strings"

	"chatapi/application/ports"
	"chatapi/domain/entities"
	"chatapi/domain/keys"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

// CodeEmailTaken marks the DuplicateEntity error for an email in use.
const CodeEmailTaken = "EMAIL_TAKEN"

func errEmailTaken() error {
	return apperrors.NewDuplicateEntityError("email already registered").WithCode(CodeEmailTaken)
}

// NewUser is the input for creating an account.
type NewUser struct {
	Email    string
	Password string
	Role     entities.Role
	Name     string
	Phone    string
	Avatar   string
}

// UserRepository persists users in the global USER partition.
type UserRepository struct {
	base
	hasher ports.PasswordHasher
}

func NewUserRepository(d Deps, hasher ports.PasswordHasher) *UserRepository {
	return &UserRepository{base: newBase(d, keys.KindUser), hasher: hasher}
}

func (r *UserRepository) toItem(u *entities.User) (ports.Item, error) {
	key, err := keys.For(keys.KindUser, u.ID, "")
	if err != nil {
		return nil, err
	}
	return r.base.toItem(u, key, map[string]string{
		keys.AttrGSI1PK: keys.EmailIndexKey(u.Email),
		keys.AttrGSI1SK: key.SK,
	})
}

// Create registers a user. The email is lowercased and must not belong to
// another account. Uniqueness is a pre-insert lookup on the email index,
// so two concurrent registrations of one address can both succeed.
func (r *UserRepository) Create(ctx context.Context, in NewUser) (*entities.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errEmailTaken()
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := r.now()
	user := &entities.User{
		ID:           r.ids.NewID(),
		Email:        email,
		PasswordHash: hash,
		Role:         entities.ParseRole(string(in.Role)),
		Name:         in.Name,
		Phone:        in.Phone,
		Avatar:       in.Avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	item, err := r.toItem(user)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError("user already exists")); err != nil {
		return nil, err
	}

	r.logger.Debug("Created user", zap.String("userID", user.ID))
	return user, nil
}

// GetByID returns NotFound when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	key, err := keys.For(keys.KindUser, id, "")
	if err != nil {
		return nil, err
	}
	user, err := getEntity[entities.User](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user")
	}
	user.Role = entities.ParseRole(string(user.Role))
	return user, nil
}

// GetByEmail looks the address up on the email index. It returns nil
// without error when no account uses it.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	res, err := r.store.Query(ctx, ports.Query{
		IndexName:    keys.EmailIndex,
		PartitionKey: keys.EmailIndexKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	user, err := fromItem[entities.User](res.Items[0])
	if err != nil {
		return nil, err
	}
	user.Role = entities.ParseRole(string(user.Role))
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, cursor string) (common.Page[entities.User], error) {
	pk, err := keys.Partition(keys.KindUser, "")
	if err != nil {
		return common.Page[entities.User]{}, err
	}
	page, err := queryPage[entities.User](ctx, r.base, r.partitionQuery(pk), cursor)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		page.Items[i].Role = entities.ParseRole(string(page.Items[i].Role))
	}
	return page, nil
}

// Update merges patch over the stored user. Changing the email re-checks
// uniqueness.
func (r *UserRepository) Update(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if err := utils.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			other, err := r.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, errEmailTaken()
			}
		}
	}

	user.Apply(patch, r.now())

	item, err := r.toItem(user)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, item); err != nil {
		return nil, err
	}
	return user, nil
}

// HashPassword validates a new password and returns the hash to store in
// UserPatch.PasswordHash, so it lands in the same write as the other fields.
func (r *UserRepository) HashPassword(password string) (string, error) {
	if err := utils.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Delete removes the user. Missing users are not an error.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	key, err := keys.For(keys.KindUser, id, "")
	if err != nil {
		return err
	}
	return r.delete(ctx, key)
}
