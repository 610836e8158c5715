package shared

import (
	"context"

	"github.com/google/uuid"
)

type tenantContextKey struct{}

type actorContextKey struct{}

// ContextWithTenant stores the tenant id in context.
func ContextWithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext extracts the tenant id from context.
func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ContextWithActor stores the acting user id in context.
func ContextWithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the acting user id from context.
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorContextKey{}).(string)
	return id
}
