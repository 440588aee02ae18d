package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"WEAPON_DETECTOR/go-backend/internal/auth"
	"WEAPON_DETECTOR/go-backend/internal/config"
	"WEAPON_DETECTOR/go-backend/internal/database"
	"WEAPON_DETECTOR/go-backend/internal/models"
	"WEAPON_DETECTOR/go-backend/internal/services"
)

// Handler carries the shared collaborators every endpoint needs. All of
// them are injected at startup; there is no hidden package state.
type Handler struct {
	store   *database.Store
	tokens  *auth.TokenManager
	hub     *services.Hub
	metrics *services.Metrics
	logger  *zap.Logger
	cfg     *config.Config
}

func New(store *database.Store, tokens *auth.TokenManager, hub *services.Hub,
	metrics *services.Metrics, logger *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		store:   store,
		tokens:  tokens,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// CORS applies the configured origin policy and answers preflights.
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := h.cfg.CORSOrigins
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	if status >= http.StatusInternalServerError {
		h.metrics.IncrementHTTPErrors()
	}
	h.writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		h.writeError(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	token, err := h.tokens.Generate(user.Username, user.ID, user.Role)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("user logged in", zap.String("username", user.Username))
	h.writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		Username:    user.Username,
		Role:        user.Role,
		FullName:    strings.TrimSpace(user.FirstName + " " + user.LastName),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Password == "" || req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if len(req.Username) < 3 {
		h.writeError(w, http.StatusBadRequest, "Username must be at least 3 characters long")
		return
	}
	if len(req.Password) < 6 {
		h.writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	if !strings.Contains(req.Email, "@") {
		h.writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := h.store.CreateUser(r.Context(), req, passwordHash); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			h.writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		h.logger.Error("registration failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("user registered", zap.String("username", req.Username))
	h.writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "User created successfully"})
}

// Logout is a no-op: tokens are stateless, the client just discards its
// copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		h.writeError(w, http.StatusBadRequest, "Missing current_password or new_password")
		return
	}
	if len(req.NewPassword) < 6 {
		h.writeError(w, http.StatusBadRequest, "New password must be at least 6 characters long")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), claims.Username())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("change password lookup failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		h.writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.store.UpdatePassword(r.Context(), user.Username, newHash); err != nil {
		h.logger.Error("password update failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Password changed successfully"})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	if err := h.store.DeleteUser(r.Context(), claims.Username()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("account deletion failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("account deleted", zap.String("username", claims.Username()))
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Account deleted successfully"})
}

func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	user, err := h.store.GetUserByUsername(r.Context(), claims.Username())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("user info lookup failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
		Username:   user.Username,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Phone:      user.Phone,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.store.UpdateUserProfile(r.Context(), claims.Username(), req); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("profile update failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Profile updated successfully"})
}
