package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Provider answers "which tenant is current" for services. Services take a
// Provider instead of reading the context directly so tests and background
// jobs can supply a fixed tenant.
type Provider interface {
	TenantID(ctx context.Context) (uuid.UUID, bool)
}

// ContextProvider reads the tenant bound by the resolver middleware.
type ContextProvider struct{}

func (ContextProvider) TenantID(ctx context.Context) (uuid.UUID, bool) {
	info, ok := FromContext(ctx)
	return info.ID, ok
}

// StaticProvider always reports the same tenant. A nil ID reports none.
type StaticProvider struct {
	ID uuid.UUID
}

func (p StaticProvider) TenantID(context.Context) (uuid.UUID, bool) {
	return p.ID, p.ID != uuid.Nil
}
