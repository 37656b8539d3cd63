package services

import (
	"context"

	"scholarline/internal/domain"

	"github.com/google/uuid"
)

type identityCtxKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	if !ok || id.UserID == uuid.Nil {
		return domain.Identity{}, false
	}
	return id, true
}
