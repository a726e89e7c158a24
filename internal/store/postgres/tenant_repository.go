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

	"github.com/registra/registra/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (code, name, document, phone, email, address, complement, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		t.Code, t.Name, t.Document, t.Phone, t.Email, t.Address, t.Complement,
		t.Enabled, t.CreatedAt, t.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return tenant.ErrTenantExists
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

// GetByCode retrieves a tenant by code
func (r *TenantRepository) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	var t tenant.Tenant

	err := r.db.pool.QueryRow(ctx, `
		SELECT code, name, document, phone, email, address, complement, enabled, created_at, updated_at
		FROM tenants
		WHERE code = $1
	`, code).Scan(
		&t.Code, &t.Name, &t.Document, &t.Phone, &t.Email, &t.Address, &t.Complement,
		&t.Enabled, &t.CreatedAt, &t.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

// Update updates a tenant's mutable fields. The code is the identity
// and is never rewritten.
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $2, document = $3, phone = $4, email = $5, address = $6, complement = $7, updated_at = $8
		WHERE code = $1
	`, t.Code, t.Name, t.Document, t.Phone, t.Email, t.Address, t.Complement, time.Now())

	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}

	return nil
}

// SetEnabled flips the soft-delete flag
func (r *TenantRepository) SetEnabled(ctx context.Context, code string, enabled bool) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET enabled = $2, updated_at = $3
		WHERE code = $1
	`, code, enabled, time.Now())

	if err != nil {
		return fmt.Errorf("failed to set tenant enabled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}

	return nil
}

// List lists tenants ordered by code
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT code, name, document, phone, email, address, complement, enabled, created_at, updated_at
		FROM tenants
		ORDER BY code
		LIMIT $1 OFFSET $2
	`, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*tenant.Tenant{}
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(
			&t.Code, &t.Name, &t.Document, &t.Phone, &t.Email, &t.Address, &t.Complement,
			&t.Enabled, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}

	return tenants, rows.Err()
}
