package domain

import (
	"context"
	"time"
)

// Session is one outstanding refresh credential. At most one live session
// exists per user: issuing a new refresh token replaces any prior session
// rather than accumulating alongside it.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	// Replace atomically removes any existing sessions for the user and
	// stores the given one. This is what makes refresh-token rotation
	// effective: a superseded token no longer matches a stored session.
	Replace(ctx context.Context, session *Session) error
	GetByUserAndToken(ctx context.Context, userID, refreshToken string) (*Session, error)
	DeleteByUser(ctx context.Context, userID string) error
}
