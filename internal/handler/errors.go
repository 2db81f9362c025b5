package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/taskdeck/internal/domain"
)

// writeServiceError is the single place a service-layer error becomes an
// HTTP status. Handlers never pick status codes themselves.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verr.Fields)
		return
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "USER_ALREADY_EXISTS", "An account with that email already exists", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", nil)
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token", nil)
	case errors.Is(err, domain.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	default:
		slog.Error("unexpected service error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred. Please try again.", nil)
	}
}
