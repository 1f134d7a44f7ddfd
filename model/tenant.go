package model

import (
	"context"

	"github.com/google/uuid"
)

// Tenant identifies one isolated data partition of the ITSM backend.
type Tenant struct {
	ID   uuid.UUID
	Slug string
	Name string
}

// TenantResolver maps a tenant slug from the request to its partition.
// Returns ErrNotFound for unknown slugs; slugs are not secrets, so the
// miss is surfaced to callers.
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (Tenant, error)
}
