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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/customer"
	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/identity"
	"github.com/registra/registra/internal/session"
	"github.com/registra/registra/internal/tenant"
	"github.com/registra/registra/internal/token"
)

// In-memory fakes backing the full router for handler tests. They
// mirror the filtering the SQL repositories do.

type memTenants struct {
	tenants map[string]*tenant.Tenant
}

func (m *memTenants) Create(ctx context.Context, t *tenant.Tenant) error {
	if _, ok := m.tenants[t.Code]; ok {
		return tenant.ErrTenantExists
	}
	m.tenants[t.Code] = t
	return nil
}

func (m *memTenants) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	t, ok := m.tenants[code]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (m *memTenants) Update(ctx context.Context, t *tenant.Tenant) error {
	m.tenants[t.Code] = t
	return nil
}

func (m *memTenants) SetEnabled(ctx context.Context, code string, enabled bool) error {
	t, ok := m.tenants[code]
	if !ok {
		return tenant.ErrTenantNotFound
	}
	t.Enabled = enabled
	return nil
}

func (m *memTenants) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	out := []*tenant.Tenant{}
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

type memPrincipals struct {
	principals map[string]*identity.Principal
}

func (m *memPrincipals) Create(ctx context.Context, p *identity.Principal) error {
	m.principals[p.ID] = p
	return nil
}

func (m *memPrincipals) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, identity.ErrPrincipalNotFound
	}
	return p, nil
}

func (m *memPrincipals) GetEnabledByLogin(ctx context.Context, login string) (*identity.Principal, error) {
	for _, p := range m.principals {
		if p.Login == login && p.Enabled {
			return p, nil
		}
	}
	return nil, identity.ErrPrincipalNotFound
}

func (m *memPrincipals) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	p, ok := m.principals[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	if p.LastLoginAt == nil || at.After(*p.LastLoginAt) {
		p.LastLoginAt = &at
	}
	return nil
}

func (m *memPrincipals) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	p, ok := m.principals[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *memPrincipals) SetEnabled(ctx context.Context, id string, enabled bool) error {
	p, ok := m.principals[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	p.Enabled = enabled
	return nil
}

type memSessions struct {
	sessions map[string]*session.Session
}

func (m *memSessions) Create(ctx context.Context, s *session.Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Touch(ctx context.Context, sessionID string, at time.Time) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return session.ErrSessionNotFound
	}
	if s.IsActive() && at.After(s.LastActivity) {
		s.LastActivity = at
	}
	return nil
}

func (m *memSessions) UpdateTokens(ctx context.Context, sessionID, accessJTI, refreshJTI string) error {
	s, ok := m.sessions[sessionID]
	if !ok || !s.IsActive() {
		return session.ErrSessionNotFound
	}
	s.AccessJTI = accessJTI
	s.RefreshJTI = refreshJTI
	return nil
}

func (m *memSessions) End(ctx context.Context, sessionID string, at time.Time) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return session.ErrSessionNotFound
	}
	if s.EndedAt == nil {
		s.Active = false
		s.EndedAt = &at
	}
	return nil
}

func (m *memSessions) EndAllForPrincipal(ctx context.Context, principalID string, at time.Time) ([]*session.Session, error) {
	var ended []*session.Session
	for _, s := range m.sessions {
		if s.PrincipalID == principalID && s.IsActive() {
			s.Active = false
			s.EndedAt = &at
			cp := *s
			ended = append(ended, &cp)
		}
	}
	return ended, nil
}

func (m *memSessions) ListActiveForPrincipal(ctx context.Context, principalID string) ([]*session.Session, error) {
	out := []*session.Session{}
	for _, s := range m.sessions {
		if s.PrincipalID == principalID && s.IsActive() {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRevocations struct {
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

type memCustomers struct {
	nextID    int64
	customers map[int64]*customer.Customer
}

func (m *memCustomers) visible(scope entity.Scope, c *customer.Customer) bool {
	if scope.Empty() || c.TenantCode != scope.TenantCode {
		return false
	}
	return scope.IncludeDisabled || c.Enabled
}

func (m *memCustomers) Create(ctx context.Context, scope entity.Scope, c *customer.Customer) error {
	if scope.Empty() {
		return entity.ErrNoTenant
	}
	c.ID = m.nextID
	m.nextID++
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *memCustomers) GetByID(ctx context.Context, scope entity.Scope, id int64) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok || !m.visible(scope, c) {
		return nil, entity.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) List(ctx context.Context, scope entity.Scope) ([]*customer.Customer, error) {
	out := []*customer.Customer{}
	for _, c := range m.customers {
		if m.visible(scope, c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCustomers) Update(ctx context.Context, scope entity.Scope, c *customer.Customer) error {
	existing, ok := m.customers[c.ID]
	if !ok || !m.visible(scope, existing) {
		return entity.ErrNotFound
	}
	cp := *c
	cp.TenantCode = existing.TenantCode
	m.customers[c.ID] = &cp
	return nil
}

func (m *memCustomers) SetEnabled(ctx context.Context, scope entity.Scope, id int64, enabled bool) error {
	c, ok := m.customers[id]
	if !ok || !m.visible(scope, c) {
		return entity.ErrNotFound
	}
	c.Enabled = enabled
	return nil
}

// fixture wires a complete handler over the in-memory fakes with two
// tenants and one principal in each.
type fixture struct {
	router  *chi.Mux
	handler *Handler
	tenants *memTenants
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auditLogger := audit.NewSlogLogger()
	hasher := identity.NewPasswordHasher(8192, 1, 1, 16, 32)

	tenants := &memTenants{tenants: make(map[string]*tenant.Tenant)}
	principals := &memPrincipals{principals: make(map[string]*identity.Principal)}
	sessions := &memSessions{sessions: make(map[string]*session.Session)}
	revocations := &memRevocations{revoked: make(map[string]time.Time)}
	customers := &memCustomers{nextID: 1, customers: make(map[int64]*customer.Customer)}

	identityService := identity.NewService(principals, hasher, auditLogger)
	tokenManager := token.NewManager(
		[]byte("handler-test-signing-key-32-bytes!!!"),
		"registra-test",
		time.Hour,
		24*time.Hour,
		revocations,
		auditLogger,
	)
	sessionService := session.NewService(sessions, auditLogger)
	tenantService := tenant.NewService(tenants, auditLogger)
	customerService := customer.NewService(customers, tenants, auditLogger)

	h := NewHandler(
		identityService,
		tokenManager,
		sessionService,
		tenantService,
		customerService,
		auditLogger,
		"http://localhost:3000",
	)

	ctx := context.Background()
	now := time.Now()
	for _, code := range []string{"ACME", "GLOBEX"} {
		require.NoError(t, tenants.Create(ctx, &tenant.Tenant{
			Code: code, Name: code, Enabled: true, CreatedAt: now, UpdatedAt: now,
		}))
	}

	_, err := identityService.CreatePrincipal(ctx, "ACME", "alice", "alice@acme.test", "Alice", identity.RoleAdmin, "SecurePassword123")
	require.NoError(t, err)
	_, err = identityService.CreatePrincipal(ctx, "GLOBEX", "bob", "bob@globex.test", "Bob", identity.RoleMember, "SecurePassword123")
	require.NoError(t, err)

	return &fixture{
		router:  NewRouter(h, NewRateLimiter(1000, 1000)),
		handler: h,
		tenants: tenants,
	}
}

// login performs a full login through the router and returns the
// decoded token response.
func (f *fixture) login(t *testing.T, login, password string) TokenResponse {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{Login: login, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func bearer(resp TokenResponse) map[string]string {
	return map[string]string{"Authorization": "Bearer " + resp.AccessToken}
}
