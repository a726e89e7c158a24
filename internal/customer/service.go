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

package customer

import (
	"context"
	"strings"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/tenant"
)

// Service provides customer business logic on top of the tenant-scoped
// record contract.
type Service struct {
	repo        Repository
	tenants     tenant.Repository
	auditLogger audit.Logger
}

// NewService creates a new customer service
func NewService(repo Repository, tenants tenant.Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, tenants: tenants, auditLogger: auditLogger}
}

// Create inserts a new customer under the scope's tenant, stamped with
// the acting principal.
func (s *Service) Create(ctx context.Context, scope entity.Scope, actorID string, c *Customer) (*Customer, error) {
	if scope.Empty() {
		return nil, entity.ErrNoTenant
	}

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, ErrNameRequired
	}
	if c.CustomerType != TypeCompany {
		c.CustomerType = TypeIndividual
	}

	owner, err := s.tenants.GetByCode(ctx, scope.TenantCode)
	if err != nil {
		return nil, entity.ErrNoTenant
	}
	if err := entity.Prepare(&c.Base, owner); err != nil {
		return nil, err
	}
	c.StampActor(actorID)

	if err := s.repo.Create(ctx, scope, c); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeRecordCreated,
		TenantCode: scope.TenantCode,
		ActorID:    actorID,
		Resource:   "customer",
		Metadata:   map[string]any{audit.AttrRecord: c.ID},
	})

	return c, nil
}

// Get retrieves one customer visible to the scope. A record that exists
// but belongs to another tenant is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, scope entity.Scope, id int64) (*Customer, error) {
	if scope.Empty() {
		return nil, entity.ErrNotFound
	}
	return s.repo.GetByID(ctx, scope, id)
}

// List lists customers visible to the scope.
func (s *Service) List(ctx context.Context, scope entity.Scope) ([]*Customer, error) {
	if scope.Empty() {
		return []*Customer{}, nil
	}
	return s.repo.List(ctx, scope)
}

// Update rewrites a customer's mutable fields. The owning-tenant
// reference is write-once and never part of the update.
func (s *Service) Update(ctx context.Context, scope entity.Scope, actorID string, id int64, updated *Customer) (*Customer, error) {
	if scope.Empty() {
		return nil, entity.ErrNotFound
	}

	existing, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return nil, ErrNameRequired
	}

	owner, err := s.tenants.GetByCode(ctx, scope.TenantCode)
	if err != nil {
		return nil, entity.ErrNoTenant
	}
	if err := entity.PrepareUpdate(&existing.Base, owner); err != nil {
		return nil, err
	}

	existing.Name = updated.Name
	existing.Document = updated.Document
	if updated.CustomerType == TypeCompany || updated.CustomerType == TypeIndividual {
		existing.CustomerType = updated.CustomerType
	}
	existing.Cellphone = updated.Cellphone
	existing.Email = updated.Email
	existing.Address = updated.Address
	existing.Complement = updated.Complement
	existing.StampActor(actorID)

	if err := s.repo.Update(ctx, scope, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Disable soft-deletes a customer. Disabling an already-disabled
// customer succeeds without change.
func (s *Service) Disable(ctx context.Context, scope entity.Scope, actorID string, id int64) error {
	if scope.Empty() {
		return entity.ErrNotFound
	}

	// Look past the enabled filter so a retried delete is a no-op
	// instead of a miss. The tenant restriction stays in force.
	wide := scope.WithDisabled()
	existing, err := s.repo.GetByID(ctx, wide, id)
	if err != nil {
		return err
	}
	if !existing.Enabled {
		return nil
	}

	entity.SoftDelete(&existing.Base)
	if err := s.repo.SetEnabled(ctx, wide, id, existing.Enabled); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeRecordDisabled,
		TenantCode: scope.TenantCode,
		ActorID:    actorID,
		Resource:   "customer",
		Metadata:   map[string]any{audit.AttrRecord: id},
	})
	return nil
}
