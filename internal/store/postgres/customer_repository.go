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
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/registra/registra/internal/customer"
	"github.com/registra/registra/internal/entity"
)

// CustomerRepository implements customer.Repository. Every query is
// bound to the caller's scope; an empty scope yields no rows rather
// than all rows.
type CustomerRepository struct {
	db *DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// scopeFilter builds the WHERE fragment shared by every read. The
// tenant_code predicate is always present; enabled is added unless the
// scope widens to disabled rows.
func scopeFilter(scope entity.Scope) string {
	if scope.IncludeDisabled {
		return `tenant_code = $1`
	}
	return `tenant_code = $1 AND enabled`
}

// Create inserts a customer under the scope's tenant
func (r *CustomerRepository) Create(ctx context.Context, scope entity.Scope, c *customer.Customer) error {
	if scope.Empty() {
		return entity.ErrNoTenant
	}

	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO customers (tenant_code, name, document, customer_type, celphone, email, address, complement, enabled, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		scope.TenantCode, c.Name, c.Document, c.CustomerType, c.Cellphone, c.Email,
		c.Address, c.Complement, c.Enabled, c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves one customer visible to the scope
func (r *CustomerRepository) GetByID(ctx context.Context, scope entity.Scope, id int64) (*customer.Customer, error) {
	if scope.Empty() {
		return nil, entity.ErrNotFound
	}

	var c customer.Customer

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_code, name, document, customer_type, celphone, email, address, complement, enabled, created_by, updated_by, created_at, updated_at
		FROM customers
		WHERE `+scopeFilter(scope)+` AND id = $2
	`, scope.TenantCode, id).Scan(
		&c.ID, &c.TenantCode, &c.Name, &c.Document, &c.CustomerType, &c.Cellphone, &c.Email,
		&c.Address, &c.Complement, &c.Enabled, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &c, nil
}

// List lists customers visible to the scope
func (r *CustomerRepository) List(ctx context.Context, scope entity.Scope) ([]*customer.Customer, error) {
	if scope.Empty() {
		return []*customer.Customer{}, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_code, name, document, customer_type, celphone, email, address, complement, enabled, created_by, updated_by, created_at, updated_at
		FROM customers
		WHERE `+scopeFilter(scope)+`
		ORDER BY id
	`, scope.TenantCode)

	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*customer.Customer{}
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(
			&c.ID, &c.TenantCode, &c.Name, &c.Document, &c.CustomerType, &c.Cellphone, &c.Email,
			&c.Address, &c.Complement, &c.Enabled, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, &c)
	}

	return customers, rows.Err()
}

// Update rewrites a customer's mutable fields. tenant_code is
// deliberately absent from the SET list: the owning tenant is fixed at
// creation.
func (r *CustomerRepository) Update(ctx context.Context, scope entity.Scope, c *customer.Customer) error {
	if scope.Empty() {
		return entity.ErrNotFound
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE customers
		SET name = $3, document = $4, customer_type = $5, celphone = $6, email = $7,
		    address = $8, complement = $9, updated_by = $10, updated_at = $11
		WHERE `+scopeFilter(scope)+` AND id = $2
	`,
		scope.TenantCode, c.ID, c.Name, c.Document, c.CustomerType, c.Cellphone, c.Email,
		c.Address, c.Complement, c.UpdatedBy, c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

// SetEnabled flips the soft-delete flag for a customer in scope
func (r *CustomerRepository) SetEnabled(ctx context.Context, scope entity.Scope, id int64, enabled bool) error {
	if scope.Empty() {
		return entity.ErrNotFound
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE customers SET enabled = $3, updated_at = NOW()
		WHERE `+scopeFilter(scope)+` AND id = $2
	`, scope.TenantCode, id, enabled)

	if err != nil {
		return fmt.Errorf("failed to set customer enabled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}
