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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/observability/logger"
	"github.com/registra/registra/internal/tenant"
	"github.com/registra/registra/internal/token"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Tenant context resolution principles:
// 1. Tenant context comes EXCLUSIVELY from the validated access token
// 2. Client-supplied tenant headers are never consulted
// 3. A request that resolves no tenant matches no records (fail closed)

// TenantAccessGuard authenticates the request and resolves its tenant
// scope. The chain is: bearer token → optional session binding → tenant
// liveness. Any failure stops the request before a handler runs.
func (h *Handler) TenantAccessGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.tokenManager.Validate(r.Context(), raw, token.TypeAccess)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				respondError(w, http.StatusUnauthorized, "token has expired")
			case errors.Is(err, token.ErrTokenRevoked):
				respondError(w, http.StatusUnauthorized, "token has been revoked")
			default:
				respondError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)

		// Optional session binding. When the client presents a session,
		// it must belong to the token's principal and carry the same
		// tenant snapshot; a mismatch is treated as a stolen or stale
		// credential, not a soft failure.
		if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
			sess, err := h.sessionService.GetActive(ctx, sessionID)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or ended session")
				return
			}
			if sess.PrincipalID != claims.PrincipalID || sess.TenantCode != claims.TenantCode {
				slog.WarnContext(ctx, "session binding mismatch",
					logger.SessionID(sessionID),
					logger.PrincipalID(claims.PrincipalID),
				)
				h.auditLogger.Log(ctx, audit.Event{
					Type:       audit.TypeTenantDenied,
					TenantCode: claims.TenantCode,
					ActorID:    claims.PrincipalID,
					Resource:   sessionID,
					IPAddress:  getIPAddress(r),
					Metadata:   map[string]any{audit.AttrReason: "session_mismatch"},
				})
				respondError(w, http.StatusUnauthorized, "session does not match token")
				return
			}
			h.sessionService.Touch(ctx, sessionID)
			ctx = context.WithValue(ctx, sessionIDKey, sessionID)
		}

		// A disabled tenant blocks reads and writes alike.
		if _, err := h.tenantService.RequireEnabled(ctx, claims.TenantCode); err != nil {
			h.auditLogger.Log(ctx, audit.Event{
				Type:       audit.TypeTenantDenied,
				TenantCode: claims.TenantCode,
				ActorID:    claims.PrincipalID,
				Resource:   r.URL.Path,
				IPAddress:  getIPAddress(r),
				Metadata:   map[string]any{audit.AttrReason: "tenant_disabled"},
			})
			if errors.Is(err, tenant.ErrTenantDisabled) {
				respondError(w, http.StatusForbidden, "tenant is disabled")
			} else {
				respondError(w, http.StatusUnauthorized, "tenant not resolved")
			}
			return
		}

		ctx = context.WithValue(ctx, scopeKey, entity.NewScope(claims.TenantCode))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
