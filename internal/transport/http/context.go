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

	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/token"
)

type contextKey string

const (
	claimsKey    contextKey = "claims"
	scopeKey     contextKey = "scope"
	sessionIDKey contextKey = "session_id"
)

// GetClaims retrieves the validated token claims from context.
func GetClaims(ctx context.Context) *token.Claims {
	if val, ok := ctx.Value(claimsKey).(*token.Claims); ok {
		return val
	}
	return nil
}

// GetScope retrieves the tenant scope from context. The zero scope is
// returned when no tenant was resolved; repositories fail closed on it.
func GetScope(ctx context.Context) entity.Scope {
	if val, ok := ctx.Value(scopeKey).(entity.Scope); ok {
		return val
	}
	return entity.Scope{}
}

// GetSessionID retrieves the bound session ID from context.
func GetSessionID(ctx context.Context) string {
	if val, ok := ctx.Value(sessionIDKey).(string); ok {
		return val
	}
	return ""
}
