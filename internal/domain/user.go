package domain

import (
	"context"
	"strings"
	"time"
)

// User represents a registered account. PasswordHash never leaves the
// service layer; every user returned to a caller is sanitized first.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// Sanitized returns a copy of the user with the password hash removed.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Emails are unique case-insensitively; all comparisons go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}
