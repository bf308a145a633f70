// Package authctx propagates authentication claims through a request
// context. Claims are stored untyped and read back with a type parameter:
//
//	ctx = authctx.Set(ctx, claims)
//	claims, ok := authctx.Get[*jwt.Claims](ctx)
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when claims are not found in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores authentication claims in the context.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get retrieves typed authentication claims from the context.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// GetOrError retrieves typed claims, or ErrNoClaims when missing or of
// another type.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		return claims, ErrNoClaims
	}
	return claims, nil
}

// Subject returns the subject of the claims in ctx when they expose one.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(claimsKey).(interface{ GetSubject() (string, error) })
	if !ok {
		return "", false
	}
	sub, err := s.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
