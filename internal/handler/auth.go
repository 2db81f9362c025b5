package handler

import (
	"net/http"

	"github.com/msomdec/taskdeck/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleSignup registers a new account and signs it in.
// POST /auth/signup
// Request:  {"email":"...","password":"..."}
// Response: 201 {"success":true,"data":{"user":...,"accessToken":...,"refreshToken":...,"expiresIn":...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", nil)
		return
	}

	if _, err := h.auth.Signup(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	// The fresh account is signed in immediately so the client gets a
	// usable token pair from the one call.
	result, err := h.auth.Login(r.Context(), req.Email, req.Password, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toAuthResultDTO(result))
}

// HandleLogin verifies credentials and returns a token pair.
// POST /auth/login
// Request:  {"email":"...","password":"...","rememberMe":false}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", nil)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAuthResultDTO(result))
}

// HandleLogout revokes the caller's session. Always reports success, even
// for a garbage token: nothing should block a client-side sign-out.
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if tokenString, ok := bearerToken(r); ok {
		h.auth.Logout(r.Context(), tokenString)
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// HandleRefresh exchanges a refresh token for a new token pair.
// POST /auth/refresh
// Request: {"refreshToken":"..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := readJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Refresh token required", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, toAuthResultDTO(result))
}

// HandleProfile returns the authenticated user.
// GET /auth/profile
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Not authenticated", nil)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}
