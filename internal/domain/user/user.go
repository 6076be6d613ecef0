package user

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single role label carried by a user. The stored and compared
// form never carries the "ROLE_" prefix.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"

	rolePrefix = "ROLE_"
)

var ErrUnknownRole = fmt.Errorf("role must be one of %s, %s", RoleAdmin, RoleUser)

// ParseRole normalizes case and strips an optional "ROLE_" prefix.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, rolePrefix)

	switch Role(name) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type UpdateSelfInput struct {
	Email    string
	Password string
}

// UpdateByAdminInput carries the raw role label; it is parsed during
// validation.
type UpdateByAdminInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// AdminSeed describes the administrator created at startup.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}
