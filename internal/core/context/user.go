// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext identifies the caller of a request. It is only used to attribute
// audit entries; authorization is handled outside this service.
type UserContext struct {
	UserID string
	Email  string
	Name   string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// Actor returns the best human-readable identity of the caller,
// falling back to "system" for unauthenticated calls.
func Actor(ctx context.Context) string {
	u := GetUser(ctx)
	switch {
	case u == nil:
		return "system"
	case u.Email != "":
		return u.Email
	case u.UserID != "":
		return u.UserID
	default:
		return "system"
	}
}
