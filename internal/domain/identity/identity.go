package identity

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("identity: unauthenticated")
	ErrForbidden       = errors.New("identity: forbidden")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool { return r == RoleCustomer || r == RoleAdmin }

// Principal is the caller resolved from a verified token.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Authorize is the single access check: admins may act on anything,
// everyone else only on resources owned by their own user id.
// An ownerID of 0 means an admin-only resource.
func Authorize(p Principal, ownerID int64) error {
	if p.UserID == 0 || !p.Role.Valid() {
		return ErrUnauthenticated
	}
	if p.IsAdmin() {
		return nil
	}
	if ownerID != 0 && ownerID == p.UserID {
		return nil
	}
	return ErrForbidden
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
