package tenant

import (
	"context"
	"errors"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantExists   = errors.New("tenant already exists")
	ErrTenantDisabled = errors.New("tenant is disabled")
	ErrInvalidCode    = errors.New("tenant code must be non-empty and alphanumeric")
)

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByCode(ctx context.Context, code string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	SetEnabled(ctx context.Context, code string, enabled bool) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
}
