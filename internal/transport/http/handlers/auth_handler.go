package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/taskmate/internal/service"
	"github.com/vedran77/taskmate/internal/transport/http/middleware"
	"github.com/vedran77/taskmate/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	secure      bool
	logger      *slog.Logger
}

// NewAuthHandler builds the credential handler. secure marks the cookie
// Secure with SameSite=None for cross-site production frontends.
func NewAuthHandler(authService *service.AuthService, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure, logger: logger}
}

type issueInput struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var input issueInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	token, err := h.authService.IssueToken(input.Email)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Email is required")
			return
		}
		h.logger.Error("issue token", "error", err)
		writeInternal(w)
		return
	}

	http.SetCookie(w, h.cookie(token, int(service.TokenTTL.Seconds())))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
