package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/setplanner/backend/internal/config"
	"github.com/setplanner/backend/internal/crypto"
	"github.com/setplanner/backend/internal/logging"
	"github.com/setplanner/backend/internal/metrics"
	"github.com/setplanner/backend/internal/models"
	"github.com/setplanner/backend/internal/services"
)

// AuthHandler issues the DJ credential. This is the only place a token is
// minted; everything downstream of it only verifies.
type AuthHandler struct {
	cfg     *config.Config
	auth    *services.AuthService
	metrics *metrics.Metrics
}

// NewAuthHandler creates an AuthHandler with the required dependencies.
func NewAuthHandler(cfg *config.Config, auth *services.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: auth, metrics: m}
}

// DJLogin exchanges the shared DJ password for a signed token.
// The password is checked against the bcrypt hash in DJ_PASSWORD_HASH.
func (h *AuthHandler) DJLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	if h.cfg.DJPasswordHash == "" {
		writeError(w, http.StatusInternalServerError, "DJ password not configured")
		return
	}

	if !crypto.ComparePassword(h.cfg.DJPasswordHash, req.Password) {
		logging.LogSecurityEvent(logging.SecurityEventBadDJPassword, "invalid DJ password")
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := h.auth.GenerateToken()
	if err != nil {
		writeErrorWithCause(w, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	h.metrics.IncLogins()
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}
