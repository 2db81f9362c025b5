// Package token signs and verifies the two JWT kinds used for
// authentication: short-lived access tokens and longer-lived refresh
// tokens, each with its own secret and expiry window.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/taskdeck/internal/domain"
)

const (
	issuer   = "taskdeck-api"
	audience = "taskdeck-app"
)

// Codec signs and verifies access and refresh tokens. The two kinds use
// independent secrets so a leaked refresh secret cannot mint access tokens
// and vice versa.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	rememberTTL   time.Duration
}

// NewCodec creates a Codec. rememberTTL is the refresh-token lifetime used
// when the client asks to be remembered across sessions.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL, rememberTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		rememberTTL:   rememberTTL,
	}
}

// AccessTTL returns the access-token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the refresh-token lifetime for the given remember flag.
func (c *Codec) RefreshTTL(remember bool) time.Duration {
	if remember {
		return c.rememberTTL
	}
	return c.refreshTTL
}

// SignAccess mints an access token for the user.
func (c *Codec) SignAccess(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(c.accessTTL).Unix(),
		"iss":   issuer,
		"aud":   audience,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// SignRefresh mints a refresh token for the user. With remember set the
// token lives for the remember-me window instead of the default.
func (c *Codec) SignRefresh(userID string, remember bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(c.RefreshTTL(remember)).Unix(),
		"iss": issuer,
		"aud": audience,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

// VerifyAccess checks an access token's signature and expiry and returns
// the embedded user ID. An expired token fails with domain.ErrTokenExpired;
// any other failure is domain.ErrInvalidToken.
func (c *Codec) VerifyAccess(tokenString string) (string, error) {
	return c.verify(tokenString, c.accessSecret, domain.ErrInvalidToken)
}

// VerifyRefresh checks a refresh token against the refresh secret and
// returns the embedded user ID. All failures, expiry included, surface as
// domain.ErrInvalidRefreshToken.
func (c *Codec) VerifyRefresh(tokenString string) (string, error) {
	userID, err := c.verify(tokenString, c.refreshSecret, domain.ErrInvalidRefreshToken)
	if err != nil {
		return "", domain.ErrInvalidRefreshToken
	}
	return userID, nil
}

func (c *Codec) verify(tokenString string, secret []byte, invalidErr error) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", invalidErr
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", invalidErr
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", invalidErr
	}
	return sub, nil
}

// UnverifiedUserID extracts the subject without checking the signature.
// Only the best-effort logout path uses this: a garbage token on the
// client must not block sign-out.
func (c *Codec) UnverifiedUserID(tokenString string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}
