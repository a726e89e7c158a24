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
	"errors"

	"github.com/registra/registra/internal/entity"
)

var ErrNameRequired = errors.New("customer name is required")

// Customer types
const (
	TypeIndividual = "individual"
	TypeCompany    = "company"
)

// Customer is a tenant-owned business record.
type Customer struct {
	entity.Base
	Name         string `json:"name"`
	Document     string `json:"document"`
	CustomerType string `json:"customer_type"`
	Cellphone    string `json:"celphone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Complement   string `json:"complement"`
	CreatedBy    string `json:"created_by,omitempty"`
	UpdatedBy    string `json:"updated_by,omitempty"`
}

// StampActor implements entity.Auditable.
func (c *Customer) StampActor(principalID string) {
	if c.CreatedBy == "" {
		c.CreatedBy = principalID
	}
	c.UpdatedBy = principalID
}

// Repository defines the interface for customer persistence. Every
// method is scope-bound; implementations fail closed on an empty scope.
type Repository interface {
	// Create inserts a customer under the scope's tenant
	Create(ctx context.Context, scope entity.Scope, c *Customer) error

	// GetByID retrieves one customer visible to the scope
	GetByID(ctx context.Context, scope entity.Scope, id int64) (*Customer, error)

	// List lists customers visible to the scope
	List(ctx context.Context, scope entity.Scope) ([]*Customer, error)

	// Update rewrites a customer's mutable fields. The tenant reference
	// is never part of the update.
	Update(ctx context.Context, scope entity.Scope, c *Customer) error

	// SetEnabled flips the soft-delete flag for a customer in scope
	SetEnabled(ctx context.Context, scope entity.Scope, id int64, enabled bool) error
}
