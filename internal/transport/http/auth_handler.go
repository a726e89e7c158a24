// Copyright 2026 The Registra Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/observability/logger"
	"github.com/registra/registra/internal/session"
	"github.com/registra/registra/internal/token"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Login    string `json:"login" example:"jdoe"`
	Password string `json:"password" example:"secret123"`
}

// TokenResponse is the payload returned by login and refresh
type TokenResponse struct {
	AccessToken  string         `json:"access"`
	RefreshToken string         `json:"refresh"`
	SessionID    string         `json:"session_id,omitempty"`
	ExpiresIn    int64          `json:"expires_in"`
	User         map[string]any `json:"user,omitempty"`
}

// Login authenticates a principal and opens a session
// @Summary Login
// @Description Authenticate with login and password, returning a token pair and a new session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	principal, err := h.identityService.Verify(r.Context(), req.Login, req.Password)
	if err != nil {
		// Unknown login, wrong password, and disabled account all look
		// the same from the outside.
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.tokenManager.Issue(r.Context(), principal)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue tokens", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	sess, err := h.sessionService.Start(
		r.Context(),
		principal.ID,
		principal.TenantCode,
		pair.AccessJTI,
		pair.RefreshJTI,
		getIPAddress(r),
		r.UserAgent(),
	)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to start session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	w.Header().Set("X-Session-ID", sess.ID)
	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SessionID:    sess.ID,
		ExpiresIn:    int64(h.tokenManager.AccessLifetime().Seconds()),
		User: map[string]any{
			"id":          principal.ID,
			"login":       principal.Login,
			"name":        principal.Name,
			"role":        principal.Role,
			"tenant_code": principal.TenantCode,
		},
	})
}

// Logout revokes the current token pair and ends every session of the
// principal, revoking the tokens bound to each of them
// @Summary Logout
// @Description Revoke the presented token and end all sessions of the current principal
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := h.tokenManager.Revoke(r.Context(), claims); err != nil {
		slog.ErrorContext(r.Context(), "failed to revoke token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	ended, err := h.sessionService.EndAll(r.Context(), claims.PrincipalID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to end sessions", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to end sessions")
		return
	}

	// Kill the token pairs bound to the ended sessions too, so tokens
	// from other devices die with their sessions.
	for _, sess := range ended {
		h.revokeSessionTokens(r, sess)
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:       audit.TypeLogout,
		TenantCode: claims.TenantCode,
		ActorID:    claims.PrincipalID,
		Resource:   "logout",
		IPAddress:  getIPAddress(r),
		UserAgent:  r.UserAgent(),
		Metadata:   map[string]any{"sessions_ended": len(ended)},
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

func (h *Handler) revokeSessionTokens(r *http.Request, sess *session.Session) {
	for _, jti := range []string{sess.AccessJTI, sess.RefreshJTI} {
		if jti == "" {
			continue
		}
		c := &token.Claims{PrincipalID: sess.PrincipalID, TenantCode: sess.TenantCode}
		c.ID = jti
		if err := h.tokenManager.Revoke(r.Context(), c); err != nil {
			slog.ErrorContext(r.Context(), "failed to revoke session token",
				logger.Error(err),
				logger.SessionID(sess.ID),
				logger.TokenID(jti),
			)
		}
	}
}

// RefreshRequest carries the refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refresh"`
}

// Refresh rotates a refresh token into a fresh pair
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new pair, revoking the old one
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	claims, err := h.tokenManager.Validate(r.Context(), req.RefreshToken, token.TypeRefresh)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// The principal must still exist and be enabled; a disabled account
	// cannot ride an old refresh token back in.
	principal, err := h.identityService.GetPrincipal(r.Context(), claims.PrincipalID)
	if err != nil || !principal.Enabled {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	pair, err := h.tokenManager.Refresh(r.Context(), req.RefreshToken, principal)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// Keep the session pointing at the live pair when the client
	// identifies one.
	sessionID := r.Header.Get("X-Session-ID")
	if sessionID != "" {
		sess, err := h.sessionService.GetActive(r.Context(), sessionID)
		if err == nil && sess.PrincipalID == principal.ID {
			if err := h.sessionService.Rebind(r.Context(), sessionID, pair.AccessJTI, pair.RefreshJTI); err != nil {
				slog.ErrorContext(r.Context(), "failed to rebind session", logger.Error(err), logger.SessionID(sessionID))
			}
		}
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SessionID:    sessionID,
		ExpiresIn:    int64(h.tokenManager.AccessLifetime().Seconds()),
	})
}

// ValidateToken reports whether the presented access token is good and
// who it belongs to. The guard already accepted the token; this is the
// one endpoint that also re-checks the principal against the store, so
// an account disabled after login stops introspecting as valid before
// its token expires.
// @Summary Validate token
// @Description Validate the presented access token and describe its principal and session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/validate [post]
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	principal, err := h.identityService.GetPrincipal(r.Context(), claims.PrincipalID)
	if err != nil || !principal.Enabled {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	resp := map[string]any{
		"is_valid": true,
		"user": map[string]any{
			"id":          claims.PrincipalID,
			"login":       claims.Login,
			"role":        claims.Role,
			"tenant_code": claims.TenantCode,
		},
	}

	if sessionID := GetSessionID(r.Context()); sessionID != "" {
		if sess, err := h.sessionService.GetActive(r.Context(), sessionID); err == nil {
			resp["session"] = sess
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// ListSessions lists the active sessions of the current principal
// @Summary List sessions
// @Description List the active sessions of the authenticated principal
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /auth/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	sessions, err := h.sessionService.ListActive(r.Context(), claims.PrincipalID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list sessions", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

// StartSession opens an additional session for the current principal,
// for clients that authenticate once and then register per-device
// sessions
// @Summary Start session
// @Description Open a new session bound to the presented access token
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 201 {object} session.Session
// @Router /auth/sessions [post]
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	sess, err := h.sessionService.Start(
		r.Context(),
		claims.PrincipalID,
		claims.TenantCode,
		claims.ID,
		"",
		getIPAddress(r),
		r.UserAgent(),
	)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to start session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	w.Header().Set("X-Session-ID", sess.ID)
	respondJSON(w, http.StatusCreated, sess)
}

// EndSessionRequest names the session to end
type EndSessionRequest struct {
	SessionID string `json:"session_id"`
}

// EndSession ends one session of the current principal. The session is
// named by the X-Session-ID header; a session_id in the JSON body is
// accepted as a fallback for clients that do not set the header.
// @Summary End session
// @Description End a single session owned by the authenticated principal, named by X-Session-ID or the request body
// @Tags Sessions
// @Accept json
// @Security BearerAuth
// @Param X-Session-ID header string false "Session to end"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /auth/sessions/end [post]
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		var req EndSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sessionID = req.SessionID
	}
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sess, err := h.sessionService.GetActive(r.Context(), sessionID)
	if err != nil || sess.PrincipalID != claims.PrincipalID {
		// Someone else's session is indistinguishable from a missing one.
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := h.sessionService.End(r.Context(), sessionID); err != nil {
		slog.ErrorContext(r.Context(), "failed to end session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	h.revokeSessionTokens(r, sess)

	w.WriteHeader(http.StatusNoContent)
}
