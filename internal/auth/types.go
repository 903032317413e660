package auth

import (
	"strings"
	"time"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role is the closed set of account roles. Stored as text but only these
// three values are ever written; ParseRole rejects anything else.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleViewer Role = "viewer"
)

// ParseRole normalizes and validates a role submitted through a form.
func ParseRole(raw string) (Role, error) {
	switch Role(normalize(raw)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleAuthor:
		return RoleAuthor, nil
	case RoleViewer:
		return RoleViewer, nil
	default:
		return "", ErrInvalidInput
	}
}

func (r Role) String() string { return string(r) }

// User is a dashboard account. Title is optional and empty when unset.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Title        string
	Role         Role
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Invitation is a single-use capability to register one account.
type Invitation struct {
	ID        int64
	Email     string
	Token     string
	Role      Role
	InvitedBy int64
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Title     string
	Role      Role
}
