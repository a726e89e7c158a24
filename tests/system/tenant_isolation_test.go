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

// Package system provides integration tests that run against a real PostgreSQL database.
//
// Test Execution:
//
//	INTEGRATION_TEST=true go test -v ./tests/system/...
//
// Prerequisites:
//
//	docker compose up -d postgres
//
// Test Categories:
//   - TEN-*: Tenant isolation tests
//   - AUT-*: Authentication flow tests
package system

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/customer"
	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/id"
	"github.com/registra/registra/internal/identity"
	"github.com/registra/registra/internal/session"
	"github.com/registra/registra/internal/store/postgres"
	"github.com/registra/registra/internal/tenant"
	"github.com/registra/registra/internal/token"
)

// testDB is the shared database connection for integration tests
var testDB *postgres.DB

// TestMain sets up and tears down the test database connection
func TestMain(m *testing.M) {
	// Skip if not integration test
	if os.Getenv("INTEGRATION_TEST") != "true" {
		os.Exit(0)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         getEnvOrDefault("DB_HOST", "localhost"),
		Port:         getEnvOrDefault("DB_PORT", "5432"),
		User:         getEnvOrDefault("DB_USER", "registra"),
		Password:     getEnvOrDefault("DB_PASSWORD", "registra_dev_password"),
		Database:     getEnvOrDefault("DB_NAME", "registra"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	testDB = db

	// Apply migrations; existing tables are fine
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		_ = err
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newTenantCode builds a unique, valid tenant code per test run
func newTenantCode(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.NewUUIDv4(), "-", ""))
	return prefix + suffix[:12]
}

// =============================================================================
// TENANT ISOLATION TESTS
// =============================================================================

// TestPurpose: Validates cross-tenant isolation of business records against a live database.
// Scope: Integration Test
// Security: Multi-tenancy boundary enforcement (prevents cross-tenant access)
// Expected: A customer created under Tenant A cannot be read, listed, updated, or deleted through Tenant B's scope.
// Test Case ID: TEN-01
func TestTenant_Isolation_RecordFromTenantAInvisibleToTenantB(t *testing.T) {
	if testDB == nil {
		t.Skip("Integration test requires database (set INTEGRATION_TEST=true)")
	}

	ctx := context.Background()
	auditLogger := audit.NewSlogLogger()

	tenantRepo := postgres.NewTenantRepository(testDB)
	customerRepo := postgres.NewCustomerRepository(testDB)
	tenantService := tenant.NewService(tenantRepo, auditLogger)
	customerService := customer.NewService(customerRepo, tenantRepo, auditLogger)

	codeA := newTenantCode("TENA")
	codeB := newTenantCode("TENB")

	tenantA, err := tenantService.CreateTenant(ctx, codeA, "Tenant A")
	require.NoError(t, err, "TEN-01: Failed to create Tenant A")
	_, err = tenantService.CreateTenant(ctx, codeB, "Tenant B")
	require.NoError(t, err, "TEN-01: Failed to create Tenant B")
	defer testDB.Pool().Exec(ctx, "DELETE FROM tenants WHERE code IN ($1, $2)", codeA, codeB)

	created, err := customerService.Create(ctx, entity.NewScope(tenantA.Code), "system", &customer.Customer{Name: "Probe"})
	require.NoError(t, err)
	defer testDB.Pool().Exec(ctx, "DELETE FROM customers WHERE id = $1", created.ID)

	// Tenant B must not see, change, or delete it
	_, err = customerService.Get(ctx, entity.NewScope(codeB), created.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound,
		"TEN-01 SECURITY: Tenant B MUST NOT read Tenant A's record")

	_, err = customerService.Update(ctx, entity.NewScope(codeB), "system", created.ID, &customer.Customer{Name: "Hijack"})
	assert.ErrorIs(t, err, entity.ErrNotFound,
		"TEN-01 SECURITY: Tenant B MUST NOT update Tenant A's record")

	err = customerService.Disable(ctx, entity.NewScope(codeB), "system", created.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound,
		"TEN-01 SECURITY: Tenant B MUST NOT delete Tenant A's record")

	listB, err := customerService.List(ctx, entity.NewScope(codeB))
	require.NoError(t, err)
	assert.Empty(t, listB, "TEN-01: Tenant B's list must not contain Tenant A's record")

	// And the owner still has it
	got, err := customerService.Get(ctx, entity.NewScope(codeA), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Probe", got.Name)
}

// =============================================================================
// AUTHENTICATION FLOW TESTS
// =============================================================================

// TestPurpose: Validates the full login, revocation, and session lifecycle against a live database.
// Scope: Integration Test
// Security: Token revocation persistence and session teardown
// Expected: Issued tokens validate until revoked; ending all sessions persists; a revoked jti stays revoked.
// Test Case ID: AUT-01
func TestAuth_TokenAndSessionLifecycle(t *testing.T) {
	if testDB == nil {
		t.Skip("Integration test requires database")
	}

	ctx := context.Background()
	auditLogger := audit.NewSlogLogger()

	tenantRepo := postgres.NewTenantRepository(testDB)
	principalRepo := postgres.NewPrincipalRepository(testDB)
	sessionRepo := postgres.NewSessionRepository(testDB)
	revocationRepo := postgres.NewRevocationRepository(testDB)

	tenantService := tenant.NewService(tenantRepo, auditLogger)
	hasher := identity.NewPasswordHasher(8192, 1, 1, 16, 32)
	identityService := identity.NewService(principalRepo, hasher, auditLogger)
	tokenManager := token.NewManager(
		[]byte("integration-test-signing-key-32b!!"),
		"registra-test",
		time.Hour,
		24*time.Hour,
		revocationRepo,
		auditLogger,
	)
	sessionService := session.NewService(sessionRepo, auditLogger)

	code := newTenantCode("AUTH")
	_, err := tenantService.CreateTenant(ctx, code, "Auth Tenant")
	require.NoError(t, err)
	defer testDB.Pool().Exec(ctx, "DELETE FROM tenants WHERE code = $1", code)

	login := "it-" + strings.ToLower(newTenantCode("")[:8])
	principal, err := identityService.CreatePrincipal(ctx, code, login, login+"@example.com", "IT User", identity.RoleMember, "IntegrationPass1")
	require.NoError(t, err)
	defer testDB.Pool().Exec(ctx, "DELETE FROM principals WHERE id = $1", principal.ID)

	// Verify credentials and issue a pair
	verified, err := identityService.Verify(ctx, login, "IntegrationPass1")
	require.NoError(t, err, "AUT-01: valid credentials must verify")
	require.NotNil(t, verified.LastLoginAt, "AUT-01: last login must be stamped")

	pair, err := tokenManager.Issue(ctx, verified)
	require.NoError(t, err)

	sess, err := sessionService.Start(ctx, principal.ID, code, pair.AccessJTI, pair.RefreshJTI, "127.0.0.1", "integration-test")
	require.NoError(t, err)
	defer testDB.Pool().Exec(ctx, "DELETE FROM sessions WHERE principal_id = $1", principal.ID)
	defer testDB.Pool().Exec(ctx, "DELETE FROM revoked_tokens WHERE jti IN ($1, $2)", pair.AccessJTI, pair.RefreshJTI)

	// Token validates before revocation
	claims, err := tokenManager.Validate(ctx, pair.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, code, claims.TenantCode)

	// Revoke and verify persistence
	require.NoError(t, tokenManager.Revoke(ctx, claims))
	_, err = tokenManager.Validate(ctx, pair.AccessToken, token.TypeAccess)
	assert.ErrorIs(t, err, token.ErrTokenRevoked,
		"AUT-01: revocation must persist in the database")

	// End all sessions and verify the row is terminal
	ended, err := sessionService.EndAll(ctx, principal.ID)
	require.NoError(t, err)
	assert.Len(t, ended, 1)

	_, err = sessionService.GetActive(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionEnded,
		"AUT-01: ended session must not come back")
}
