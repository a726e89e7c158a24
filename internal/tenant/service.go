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

package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/registra/registra/internal/audit"
)

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// CreateTenant provisions a new tenant. The code is normalized before
// storage so lookups are case-insensitive for callers.
func (s *Service) CreateTenant(ctx context.Context, code, name string) (*Tenant, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, ErrTenantExists
	}

	now := time.Now()
	t := &Tenant{
		Code:      code,
		Name:      name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	return t, nil
}

// GetTenant retrieves a tenant by its normalized code.
func (s *Service) GetTenant(ctx context.Context, code string) (*Tenant, error) {
	return s.repo.GetByCode(ctx, NormalizeCode(code))
}

// RequireEnabled retrieves a tenant and fails if it has been disabled.
// This is the check the access guard performs on every request.
func (s *Service) RequireEnabled(ctx context.Context, code string) (*Tenant, error) {
	t, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if !t.Enabled {
		return nil, ErrTenantDisabled
	}
	return t, nil
}

// ListTenants lists tenants with pagination.
func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	return s.repo.List(ctx, limit, offset)
}

// Disable soft-deletes a tenant. Every subsequent request scoped to it is
// rejected by the access guard; its records stay in place for audit.
func (s *Service) Disable(ctx context.Context, code string, actorID string) error {
	code = NormalizeCode(code)
	if err := s.repo.SetEnabled(ctx, code, false); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeRecordDisabled,
		TenantCode: code,
		ActorID:    actorID,
		Resource:   "tenant",
	})

	return nil
}
