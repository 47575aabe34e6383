package domain

import (
	"fmt"
	"time"
)

// Role enumerates the closed set of caller roles. Values are
// case-sensitive; anything outside the set is rejected at parse time.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role value against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleOwner, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// CanOwnHouse reports whether the role is allowed to own a house.
func (r Role) CanOwnHouse() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User is the domain model for marketplace accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
