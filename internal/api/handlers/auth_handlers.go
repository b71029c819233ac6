package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gridvolt/internal/auth"
	"gridvolt/internal/models"
	"gridvolt/internal/repository"
)

// AuthHandlers serves signup and login.
type AuthHandlers struct {
	users  *repository.UserRepository
	hasher auth.Hasher
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthHandlers builds handlers.
func NewAuthHandlers(users *repository.UserRepository, hasher auth.Hasher, tokens *auth.TokenService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Signup handles POST /api/auth/signup. The generated code is the
// authorization tag the driver presents at the charge point.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
	}

	var req request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Code:         newAuthTag(),
		Role:         "user",
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		h.logger.Error("signup failed", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, response{ID: user.ID, Code: user.Code})
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}

	var req request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.UserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, response{Token: token, TokenType: "Bearer"})
}

func newAuthTag() string {
	return "TAG-" + strings.ToUpper(uuid.NewString()[:8])
}
