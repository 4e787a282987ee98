package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/topiclab/internal/audit"
	"github.com/nerrad567/topiclab/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        auth.Role `json:"role"`
}

// handleLogin exchanges a configured username and password for an access
// token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authEnabled() || s.users == nil || s.users.Len() == 0 {
		writeNotFound(w, "password login is not configured")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("login failed", "username", req.Username, "error", err)
		}
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
	token, expires, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("api login", "username", user.Username, "role", user.Role)
	s.auditLog(r.WithContext(context.WithValue(r.Context(), ctxKeyUser, user)),
		audit.ActionLogin, audit.EntityUser, user.Username, map[string]any{"role": user.Role})
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
		ExpiresAt:   expires.UTC(),
		Role:        user.Role,
	})
}
