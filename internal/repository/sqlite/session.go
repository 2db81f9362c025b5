package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/taskdeck/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db.SqlDB}
}

// Replace removes any existing sessions for the user and stores the given
// one, in a single transaction. Concurrent refreshes for the same user
// therefore never leave zero or two live sessions behind.
func (r *SessionRepository) Replace(ctx context.Context, session *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, session.UserID,
	); err != nil {
		return fmt.Errorf("delete prior sessions: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, session.UserID, session.RefreshToken, session.ExpiresAt.UTC(), now,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session replace: %w", err)
	}

	session.ID = id
	session.CreatedAt = now
	return nil
}

func (r *SessionRepository) GetByUserAndToken(ctx context.Context, userID, refreshToken string) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, refresh_token, expires_at, created_at
		 FROM sessions WHERE user_id = ? AND refresh_token = ?`,
		userID, refreshToken,
	).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
