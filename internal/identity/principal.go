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
	"errors"
	"time"
)

// Domain errors
var (
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrPrincipalExists    = errors.New("principal already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
)

// Roles a principal can hold within its tenant.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Principal represents an authenticated user. A principal always belongs
// to exactly one tenant; a disabled principal cannot authenticate.
type Principal struct {
	ID           string     `json:"id"`
	TenantCode   string     `json:"tenant_code"`
	Login        string     `json:"login"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	Enabled      bool       `json:"enabled"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Repository defines the interface for principal persistence
type Repository interface {
	// Create creates a new principal
	Create(ctx context.Context, p *Principal) error

	// GetByID retrieves a principal by id
	GetByID(ctx context.Context, id string) (*Principal, error)

	// GetEnabledByLogin retrieves an enabled principal by exact login.
	// Disabled principals are invisible to this lookup.
	GetEnabledByLogin(ctx context.Context, login string) (*Principal, error)

	// UpdateLastLogin advances last_login_at for a principal. The write
	// is monotonic: an older timestamp never overwrites a newer one.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// UpdatePasswordHash replaces only the stored hash, used for
	// transparent rehash after a successful legacy verification.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// SetEnabled flips the soft-delete flag
	SetEnabled(ctx context.Context, id string, enabled bool) error
}
