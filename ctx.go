package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterUser extracts the resolved User from the router context
func GetRouterUser(ctx router.Context, key string) (*User, bool) {
	if key == "" {
		key = UserKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}

// Can is a convenience function to check a permission directly from the
// standard context. It requires the guard to have stored the resolved user.
func Can(ctx context.Context, permission Permission) bool {
	user, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return user.Can(permission)
}

// CanFromRouter is a convenience function to check a permission directly
// from the router context.
func CanFromRouter(ctx router.Context, permission Permission) bool {
	user, ok := GetRouterUser(ctx, "")
	if !ok {
		return false
	}
	return user.Can(permission)
}
