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
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/registra/registra/internal/audit"
)

// MockRepository is a simple in-memory implementation of Repository
type MockRepository struct {
	principals map[string]*Principal
}

func NewMockRepository() *MockRepository {
	return &MockRepository{principals: make(map[string]*Principal)}
}

func (m *MockRepository) Create(ctx context.Context, p *Principal) error {
	for _, existing := range m.principals {
		if existing.Login == p.Login {
			return ErrPrincipalExists
		}
	}
	m.principals[p.ID] = p
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

func (m *MockRepository) GetEnabledByLogin(ctx context.Context, login string) (*Principal, error) {
	for _, p := range m.principals {
		if p.Login == login && p.Enabled {
			return p, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (m *MockRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	p, ok := m.principals[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	if p.LastLoginAt == nil || at.After(*p.LastLoginAt) {
		p.LastLoginAt = &at
	}
	return nil
}

func (m *MockRepository) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	p, ok := m.principals[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *MockRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	p, ok := m.principals[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.Enabled = enabled
	return nil
}

func newTestService() (*Service, *MockRepository) {
	repo := NewMockRepository()
	hasher := NewPasswordHasher(65536, 3, 4, 16, 32)
	return NewService(repo, hasher, audit.NewSlogLogger()), repo
}

// TestPurpose: Validates the credential verification flow, including success, wrong password, and unknown login.
// Scope: Unit Test
// Security: Authentication mechanisms and enumeration resistance (uniform failure error)
// Expected: Principal returned for correct credentials; ErrInvalidCredentials for wrong password and unknown login alike.
// Test Case ID: IDN-01
func TestIdentity_Service_Verify(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	p, err := s.CreatePrincipal(ctx, "acme", "alice", "alice@example.com", "Alice", RoleAdmin, "SecurePassword123")
	if err != nil {
		t.Fatalf("failed to create principal: %v", err)
	}

	// 1. Success
	got, err := s.Verify(ctx, "alice", "SecurePassword123")
	if err != nil {
		t.Fatalf("expected success, got err: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected principal ID %s, got %s", p.ID, got.ID)
	}
	if got.LastLoginAt == nil {
		t.Error("expected last login timestamp to be set")
	}

	// 2. Wrong password
	_, err = s.Verify(ctx, "alice", "WrongPassword")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	// 3. Unknown login collapses into the same error
	_, err = s.Verify(ctx, "nobody", "SecurePassword123")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown login, got %v", err)
	}
}

// TestPurpose: Validates that a disabled principal cannot authenticate and the failure is indistinguishable from bad credentials.
// Scope: Unit Test
// Security: Soft-delete enforcement on the authentication path
// Expected: ErrInvalidCredentials after the principal is disabled, even with the correct password.
// Test Case ID: IDN-02
func TestIdentity_Service_Verify_Disabled(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	p, err := s.CreatePrincipal(ctx, "acme", "bob", "bob@example.com", "Bob", RoleMember, "SecurePassword123")
	if err != nil {
		t.Fatalf("failed to create principal: %v", err)
	}

	if err := s.Disable(ctx, p.ID); err != nil {
		t.Fatalf("failed to disable: %v", err)
	}

	_, err = s.Verify(ctx, "bob", "SecurePassword123")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for disabled principal, got %v", err)
	}
}

// TestPurpose: Validates transparent rehashing of legacy bcrypt hashes on successful login.
// Scope: Unit Test
// Security: Credential storage migration without user interaction
// Expected: A principal stored with a bcrypt hash authenticates once, after which the stored hash is Argon2id.
// Test Case ID: IDN-03
func TestIdentity_Service_Verify_LegacyRehash(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	legacyHash, err := bcrypt.GenerateFromPassword([]byte("OldPassword123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate bcrypt hash: %v", err)
	}

	p := &Principal{
		ID:           "legacy-1",
		TenantCode:   "ACME",
		Login:        "carol",
		PasswordHash: string(legacyHash),
		Enabled:      true,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("failed to seed principal: %v", err)
	}

	got, err := s.Verify(ctx, "carol", "OldPassword123")
	if err != nil {
		t.Fatalf("expected legacy hash to verify, got err: %v", err)
	}
	if s.hasher.IsLegacy(got.PasswordHash) {
		t.Error("expected stored hash to be upgraded to Argon2id")
	}

	// The upgraded hash must still verify.
	if _, err := s.Verify(ctx, "carol", "OldPassword123"); err != nil {
		t.Errorf("expected upgraded hash to verify, got err: %v", err)
	}
}

// TestPurpose: Validates the minimum password policy and the change-password flow.
// Scope: Unit Test
// Security: Credential policy enforcement
// Expected: ErrWeakPassword for short or letter-only passwords; change succeeds only with the correct old password.
// Test Case ID: IDN-04
func TestIdentity_Service_ChangePassword(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.CreatePrincipal(ctx, "acme", "dave", "", "", RoleMember, "short1")
	if err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword for short password, got %v", err)
	}

	p, err := s.CreatePrincipal(ctx, "acme", "dave", "", "", RoleMember, "SecurePassword123")
	if err != nil {
		t.Fatalf("failed to create principal: %v", err)
	}

	if err := s.ChangePassword(ctx, p.ID, "WrongOld", "NewPassword456"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.ChangePassword(ctx, p.ID, "SecurePassword123", "lettersonly"); err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if err := s.ChangePassword(ctx, p.ID, "SecurePassword123", "NewPassword456"); err != nil {
		t.Errorf("expected change to succeed, got %v", err)
	}

	if _, err := s.Verify(ctx, "dave", "NewPassword456"); err != nil {
		t.Errorf("expected new password to verify, got %v", err)
	}
}
