package entities

import "strings"

// Role is a user's authorization level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a stored role. Missing or unknown values read as user.
func ParseRole(s string) Role {
	if Role(strings.ToLower(s)) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is an account. Users live in the global USER partition and are
// indexed by lowercased email on GSI1.
type User struct {
	ID           string `json:"id" dynamodbav:"id"`
	Email        string `json:"email" dynamodbav:"email"`
	PasswordHash string `json:"-" dynamodbav:"passwordHash"`
	Role         Role   `json:"role" dynamodbav:"role"`
	Name         string `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Phone        string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Avatar       string `json:"avatar,omitempty" dynamodbav:"avatar,omitempty"`
	// AvatarURL is a signed read URL for Avatar, resolved per response.
	AvatarURL    string `json:"avatarUrl,omitempty" dynamodbav:"-"`
	CreatedAt    int64  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch carries the fields of a partial user update. Nil means untouched.
type UserPatch struct {
	Email        *string
	Name         *string
	Phone        *string
	Avatar       *string
	Role         *Role
	PasswordHash *string
}

// Apply merges the patch over u and stamps updatedAt.
func (u *User) Apply(p UserPatch, now int64) {
	if p.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Role != nil {
		u.Role = ParseRole(string(*p.Role))
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	u.UpdatedAt = now
}
