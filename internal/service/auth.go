package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/taskdeck/internal/domain"
	"github.com/msomdec/taskdeck/internal/token"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dummyHash is a bcrypt hash of an unguessable string. Login compares
// against it when the email is unknown so the unknown-email path costs a
// hash verification too, keeping its latency close to the wrong-password
// path.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthResult is returned from signup, login, and refresh. It is never
// persisted; ExpiresIn is the access token's lifetime in seconds.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthService turns credentials and tokens into verified identity and
// manages the two-token session lifecycle.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	codec      *token.Codec
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, codec *token.Codec, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		codec:      codec,
		bcryptCost: bcryptCost,
	}
}

// Signup registers a new account and returns the created user with the
// password hash stripped. The email is normalized before the duplicate
// check, so addresses differing only in case or whitespace collide.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if verr := validateCredentials(email, password); verr != nil {
		return nil, verr
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user.Sanitized(), nil
}

// Login verifies credentials, records the login time, mints a fresh token
// pair, and rotates the user's session. Unknown email and wrong password
// fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn a comparison so this path is not measurably faster.
			bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("record login time: %w", err)
	}

	return s.issueTokens(ctx, user, rememberMe)
}

// Logout revokes the user's session. It is best-effort: a garbage token or
// a storage failure is logged and swallowed, because a stale client-side
// token must never block sign-out.
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	userID, err := s.codec.UnverifiedUserID(accessToken)
	if err != nil {
		slog.Warn("logout with undecodable token", "error", err)
		return
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		slog.Warn("logout session revocation failed", "error", err)
	}
}

// ValidateToken verifies an access token and returns the user it names,
// password hash stripped. Bad signatures and expired tokens fail with
// distinguishable errors; a token naming a user that no longer exists is
// invalid. Called on every protected request, so it does nothing beyond
// verification and one lookup.
func (s *AuthService) ValidateToken(ctx context.Context, accessToken string) (*domain.User, error) {
	userID, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The token outlived its user. An authentication failure,
			// not a resource miss.
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return user.Sanitized(), nil
}

// Refresh exchanges a refresh token for a new token pair. The token must
// both verify cryptographically and match the user's stored session; a
// token superseded by a later login or refresh fails even with a valid
// signature. Every failure surfaces as ErrInvalidRefreshToken, including
// a missing or deactivated user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	if _, err := s.sessions.GetByUserAndToken(ctx, userID, refreshToken); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user, false)
}

// issueTokens mints an access+refresh pair and rotates the session record.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, rememberMe bool) (*AuthResult, error) {
	accessToken, err := s.codec.SignAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.codec.SignRefresh(user.ID, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	session := &domain.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(s.codec.RefreshTTL(rememberMe)),
	}
	if err := s.sessions.Replace(ctx, session); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}, nil
}

// validateCredentials applies the signup rules: well-formed email,
// password between 6 and 128 characters.
func validateCredentials(email, password string) *domain.ValidationError {
	verr := domain.NewValidationError()
	if email == "" {
		verr.Add("email", "Email is required")
	} else if !emailPattern.MatchString(email) {
		verr.Add("email", "Please provide a valid email address")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	} else {
		if len(password) < 6 {
			verr.Add("password", "Password must be at least 6 characters")
		}
		if len(password) > 128 {
			verr.Add("password", "Password must be less than 128 characters")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
