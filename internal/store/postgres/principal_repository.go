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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/registra/registra/internal/identity"
)

// PrincipalRepository implements identity.Repository
type PrincipalRepository struct {
	db *DB
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// Create creates a new principal
func (r *PrincipalRepository) Create(ctx context.Context, p *identity.Principal) error {
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO principals (id, tenant_code, login, email, name, role, password_hash, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		p.ID, p.TenantCode, p.Login, p.Email, p.Name, p.Role, p.PasswordHash,
		p.Enabled, now, now,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return identity.ErrPrincipalExists
		}
		return fmt.Errorf("failed to create principal: %w", err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a principal by id
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetEnabledByLogin retrieves an enabled principal by exact login.
// Disabled principals do not exist as far as authentication is
// concerned.
func (r *PrincipalRepository) GetEnabledByLogin(ctx context.Context, login string) (*identity.Principal, error) {
	return r.get(ctx, `WHERE login = $1 AND enabled`, login)
}

func (r *PrincipalRepository) get(ctx context.Context, where string, arg any) (*identity.Principal, error) {
	var p identity.Principal

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_code, login, email, name, role, password_hash, enabled, last_login_at, created_at, updated_at
		FROM principals
	`+where, arg).Scan(
		&p.ID, &p.TenantCode, &p.Login, &p.Email, &p.Name, &p.Role, &p.PasswordHash,
		&p.Enabled, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}

// UpdateLastLogin advances last_login_at. The guard in the WHERE clause
// keeps the write monotonic under concurrent logins.
func (r *PrincipalRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE principals SET last_login_at = $2
		WHERE id = $1 AND (last_login_at IS NULL OR last_login_at < $2)
	`, id, at)

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdatePasswordHash replaces the stored hash
func (r *PrincipalRepository) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE principals SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id, hash, time.Now())

	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrPrincipalNotFound
	}

	return nil
}

// SetEnabled flips the soft-delete flag
func (r *PrincipalRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE principals SET enabled = $2, updated_at = $3
		WHERE id = $1
	`, id, enabled, time.Now())

	if err != nil {
		return fmt.Errorf("failed to set principal enabled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrPrincipalNotFound
	}

	return nil
}
