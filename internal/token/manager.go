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
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/id"
	"github.com/registra/registra/internal/identity"
)

// Manager issues, validates, refreshes, and revokes HS256-signed JWTs.
type Manager struct {
	signingKey      []byte
	issuer          string
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	revocations     RevocationStore
	auditLogger     audit.Logger
}

// NewManager creates a new token manager
func NewManager(
	signingKey []byte,
	issuer string,
	accessLifetime, refreshLifetime time.Duration,
	revocations RevocationStore,
	auditLogger audit.Logger,
) *Manager {
	return &Manager{
		signingKey:      signingKey,
		issuer:          issuer,
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
		revocations:     revocations,
		auditLogger:     auditLogger,
	}
}

// Issue creates a fresh access/refresh pair for a principal. The refresh
// token embeds the access token's jti so a later rotation can revoke
// both halves of the pair.
func (m *Manager) Issue(ctx context.Context, p *identity.Principal) (*Pair, error) {
	now := time.Now().UTC()
	accessJTI := id.NewUUIDv4()
	refreshJTI := id.NewUUIDv4()
	accessExp := now.Add(m.accessLifetime)

	access, err := m.sign(&Claims{
		PrincipalID: p.ID,
		Login:       p.Login,
		TenantCode:  p.TenantCode,
		Role:        p.Role,
		TokenType:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        accessJTI,
			Issuer:    m.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := m.sign(&Claims{
		PrincipalID: p.ID,
		Login:       p.Login,
		TenantCode:  p.TenantCode,
		Role:        p.Role,
		TokenType:   TypeRefresh,
		AccessJTI:   accessJTI,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refreshJTI,
			Issuer:    m.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshLifetime)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	m.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeTokenIssued,
		TenantCode: p.TenantCode,
		ActorID:    p.ID,
		Resource:   accessJTI,
	})

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessJTI:    accessJTI,
		RefreshJTI:   refreshJTI,
		ExpiresAt:    accessExp,
	}, nil
}

// Validate checks a raw token string and returns its claims. Checks run
// in a fixed order: signature and structure first, then expiry, then
// revocation, so a tampered token is never reported as merely expired.
func (m *Manager) Validate(ctx context.Context, raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		if claimsParsed(claims) && isExpiredErr(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke invalidates a token by jti until its natural expiry. Revoking a
// jti that is already revoked succeeds silently.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	expiresAt := time.Now().UTC().Add(m.refreshLifetime)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := m.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	m.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeTokenRevoked,
		TenantCode: claims.TenantCode,
		ActorID:    claims.PrincipalID,
		Resource:   claims.ID,
	})
	return nil
}

// Refresh rotates a refresh token: it validates the presented refresh
// token, issues a fresh pair, and revokes both the old refresh token
// and the access token it was paired with. A replayed refresh token
// therefore fails with ErrTokenRevoked.
func (m *Manager) Refresh(ctx context.Context, rawRefresh string, p *identity.Principal) (*Pair, error) {
	claims, err := m.Validate(ctx, rawRefresh, TypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.PrincipalID != p.ID {
		return nil, ErrTokenMalformed
	}

	pair, err := m.Issue(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := m.Revoke(ctx, claims); err != nil {
		return nil, err
	}
	if claims.AccessJTI != "" {
		paired := &Claims{
			PrincipalID:      claims.PrincipalID,
			TenantCode:       claims.TenantCode,
			RegisteredClaims: jwt.RegisteredClaims{ID: claims.AccessJTI, ExpiresAt: claims.ExpiresAt},
		}
		if err := m.Revoke(ctx, paired); err != nil {
			return nil, err
		}
	}

	m.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeTokenRefreshed,
		TenantCode: p.TenantCode,
		ActorID:    p.ID,
		Resource:   pair.AccessJTI,
	})

	return pair, nil
}

// AccessLifetime reports the configured access token lifetime.
func (m *Manager) AccessLifetime() time.Duration {
	return m.accessLifetime
}

func (m *Manager) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	return m.signingKey, nil
}

// claimsParsed reports whether the parser got far enough to trust the
// payload. Expiry is only reported as such when the signature held up;
// jwt/v5 joins validation errors with ErrTokenSignatureInvalid when the
// signature itself failed.
func claimsParsed(claims *Claims) bool {
	return claims.ID != ""
}

func isExpiredErr(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid)
}
