package auth

import (
	"context"

	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID   string
	Username string
	Role     models.Role
}

func (i *Identity) IsSuperAdmin() bool {
	return i != nil && i.Role == models.RoleSuperAdmin
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
