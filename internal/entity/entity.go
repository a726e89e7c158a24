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

// Package entity defines the contract every tenant-owned record obeys:
// a surrogate identity, a mandatory owning-tenant reference, an enabled
// flag for soft deletion, and creation/update timestamps. Repositories
// accept a Scope and must never run an unscoped query.
package entity

import (
	"errors"
	"time"

	"github.com/registra/registra/internal/tenant"
)

var (
	ErrNoTenant       = errors.New("no tenant resolved for operation")
	ErrTenantDisabled = errors.New("tenant is disabled")
	ErrNotFound       = errors.New("record not found")
)

// Base carries the fields shared by every tenant-owned record. Entity
// types embed it; the tenant reference is stamped once at creation and
// never rewritten.
type Base struct {
	ID         int64     `json:"id"`
	TenantCode string    `json:"tenant_code"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OwnerTenant implements TenantOwned.
func (b *Base) OwnerTenant() string {
	return b.TenantCode
}

// TenantOwned marks a type as belonging to exactly one tenant. The guard
// dispatches on this static capability instead of probing attributes at
// runtime.
type TenantOwned interface {
	OwnerTenant() string
}

// Auditable marks a type that records the acting principal on writes.
// Types opt in at compile time.
type Auditable interface {
	StampActor(principalID string)
}

// Scope restricts every repository query to one tenant's enabled
// records. A zero Scope matches nothing: repositories must treat it as
// an empty result set, never as an unfiltered query.
type Scope struct {
	TenantCode      string
	IncludeDisabled bool
}

// NewScope builds a scope for a resolved tenant.
func NewScope(tenantCode string) Scope {
	return Scope{TenantCode: tenant.NormalizeCode(tenantCode)}
}

// WithDisabled widens the scope to include soft-deleted records. The
// tenant restriction is unaffected.
func (s Scope) WithDisabled() Scope {
	s.IncludeDisabled = true
	return s
}

// Empty reports whether the scope resolves no tenant. Repositories
// fail closed on an empty scope.
func (s Scope) Empty() bool {
	return s.TenantCode == ""
}

// Prepare stamps a new record with its owning tenant and timestamps.
// It rejects creation under a disabled tenant.
func Prepare(b *Base, owner *tenant.Tenant) error {
	if owner == nil || owner.Code == "" {
		return ErrNoTenant
	}
	if !owner.Enabled {
		return ErrTenantDisabled
	}

	now := time.Now()
	b.TenantCode = owner.Code
	b.Enabled = true
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// PrepareUpdate refreshes the update timestamp and revalidates the
// owning tenant. The tenant reference itself is write-once: callers
// never pass a different tenant than the one stamped at creation, and
// repositories never include it in UPDATE statements.
func PrepareUpdate(b *Base, owner *tenant.Tenant) error {
	if owner == nil || owner.Code == "" {
		return ErrNoTenant
	}
	if b.TenantCode != owner.Code {
		return ErrNotFound
	}
	if !owner.Enabled {
		return ErrTenantDisabled
	}

	b.UpdatedAt = time.Now()
	return nil
}

// SoftDelete marks a record disabled. Deleting an already-disabled
// record is a no-op success.
func SoftDelete(b *Base) {
	if !b.Enabled {
		return
	}
	b.Enabled = false
	b.UpdatedAt = time.Now()
}
