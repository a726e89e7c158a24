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

package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Domain errors. Validation reports the first failure in a fixed order:
// malformed before expired, expired before revoked.
var (
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")
	ErrWrongTokenType = errors.New("token has the wrong type for this operation")
)

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens. A
// refresh token additionally records the jti of the access token it was
// issued with, so rotating it can revoke the whole pair.
type Claims struct {
	PrincipalID string `json:"user_id"`
	Login       string `json:"login"`
	TenantCode  string `json:"company_id"`
	Role        string `json:"role,omitempty"`
	TokenType   string `json:"type"`
	AccessJTI   string `json:"access_jti,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair issued together
type Pair struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	AccessJTI    string    `json:"-"`
	RefreshJTI   string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// RevocationStore persists revoked token identifiers. Revoke must be
// idempotent: revoking an already-revoked jti is not an error.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
