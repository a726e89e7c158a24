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

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/id"
	"github.com/registra/registra/internal/tenant"
)

// Service provides identity-related business logic
type Service struct {
	repo        Repository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo Repository, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// CreatePrincipal provisions a new principal with credentials inside a tenant.
func (s *Service) CreatePrincipal(ctx context.Context, tenantCode, login, email, name, role, password string) (*Principal, error) {
	tenantCode = tenant.NormalizeCode(tenantCode)
	if !tenant.ValidCode(tenantCode) {
		return nil, tenant.ErrInvalidCode
	}

	login = strings.TrimSpace(login)
	if login == "" {
		return nil, ErrInvalidCredentials
	}

	if !isStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	if role != RoleAdmin && role != RoleMember {
		role = RoleMember
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	p := &Principal{
		ID:           id.NewUUIDv7(),
		TenantCode:   tenantCode,
		Login:        login,
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: passwordHash,
		Enabled:      true,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeRecordCreated,
		TenantCode: tenantCode,
		ActorID:    p.ID,
		Resource:   "principal",
	})

	return p, nil
}

// Verify authenticates a principal by login and password. Every failure
// path that the caller surfaces to clients collapses into
// ErrInvalidCredentials so the response cannot be used to probe which
// logins exist.
func (s *Service) Verify(ctx context.Context, login, password string) (*Principal, error) {
	login = strings.TrimSpace(login)

	p, err := s.repo.GetEnabledByLogin(ctx, login)
	if err != nil {
		// Burn a hash anyway to keep unknown-login timing close to
		// the wrong-password path.
		_, _ = s.hasher.Hash(password)
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: login,
			Metadata: map[string]any{audit.AttrReason: "principal_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil || !valid {
		s.auditLogger.Log(ctx, audit.Event{
			Type:       audit.TypeLoginFailed,
			TenantCode: p.TenantCode,
			ActorID:    p.ID,
			Resource:   "login",
			Metadata:   map[string]any{audit.AttrReason: "invalid_password"},
		})
		return nil, ErrInvalidCredentials
	}

	// Transparent upgrade: a legacy bcrypt match is rehashed with
	// Argon2id on the spot.
	if s.hasher.IsLegacy(p.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			_ = s.repo.UpdatePasswordHash(ctx, p.ID, newHash)
			p.PasswordHash = newHash
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, p.ID, now); err == nil {
		p.LastLoginAt = &now
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeLoginSuccess,
		TenantCode: p.TenantCode,
		ActorID:    p.ID,
		Resource:   "login",
	})

	return p, nil
}

// GetPrincipal retrieves a principal by ID
func (s *Service) GetPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

// ChangePassword changes a principal's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return ErrPrincipalNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, p.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if !isStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdatePasswordHash(ctx, principalID, newHash)
}

// Disable soft-deletes a principal. A disabled principal is invisible to
// login lookups but keeps its row for audit history.
func (s *Service) Disable(ctx context.Context, principalID string) error {
	if err := s.repo.SetEnabled(ctx, principalID, false); err != nil {
		return err
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordDisabled,
		ActorID:  principalID,
		Resource: "principal",
	})
	return nil
}

// isStrongPassword enforces the minimum credential policy: at least
// 8 characters with one letter and one digit.
func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, c := range password {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}
