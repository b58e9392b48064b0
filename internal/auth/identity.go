package auth

import (
	"context"
	"errors"

	"task-tracker/internal/domain"
)

// ErrUnauthenticated is returned when a protected operation runs without a resolved identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the caller resolved from a verified token for one request.
type Identity struct {
	UserID int64
	Role   domain.Role
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx. An identity without a user id counts as absent.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}

// CurrentUserID returns the caller's user id, or ErrUnauthenticated.
func CurrentUserID(ctx context.Context) (int64, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return id.UserID, nil
}
