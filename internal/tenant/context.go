package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantKey contextKey = "tenant"
	userKey   contextKey = "user"
)

// Info identifies the tenant a request or job runs on behalf of.
type Info struct {
	ID        uuid.UUID
	Subdomain string
}

// WithTenant binds the tenant to ctx. A zero ID leaves ctx unchanged.
// The binding lives exactly as long as the returned context, so there is
// no separate clear step for request-scoped use.
func WithTenant(ctx context.Context, info Info) context.Context {
	if info.ID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, tenantKey, info)
}

// Clear masks any tenant inherited from ctx. Safe to call on a context
// that never carried one.
func Clear(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, tenantKey, Info{})
}

func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(tenantKey).(Info)
	if !ok || info.ID == uuid.Nil {
		return Info{}, false
	}
	return info, true
}

// IDFromContext returns uuid.Nil when no tenant is bound.
func IDFromContext(ctx context.Context) uuid.UUID {
	info, _ := FromContext(ctx)
	return info.ID
}

// SubdomainFromContext returns "" when no tenant is bound.
func SubdomainFromContext(ctx context.Context) string {
	info, _ := FromContext(ctx)
	return info.Subdomain
}

func IsSet(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}

// UserClaims is the authenticated principal attached by the auth layer.
type UserClaims struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
	Role     string
}

func WithUser(ctx context.Context, u UserClaims) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (UserClaims, bool) {
	u, ok := ctx.Value(userKey).(UserClaims)
	return u, ok
}
