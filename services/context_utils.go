package services

import (
	"context"

	"code-review-client/models"
)

// API is the gateway surface the services call through.
type API interface {
	CallJSON(ctx context.Context, method, endpoint string, body, out any) error
}

// IdentitySource yields the signed-in identity.
type IdentitySource interface {
	Identity() (models.Identity, bool)
}

// persistentContext detaches follow-up work from the caller's cancellation.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

func currentIdentity(src IdentitySource) (models.Identity, error) {
	if src == nil {
		return models.Identity{}, ErrNotSignedIn
	}
	identity, ok := src.Identity()
	if !ok {
		return models.Identity{}, ErrNotSignedIn
	}
	return identity, nil
}
