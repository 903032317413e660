package auth

import "context"

type ctxKey string

const userKey ctxKey = "auth_user"

// ContextWithUser stores the resolved account in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the authenticated account from context.
// Anonymous requests return (nil, false).
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// IsAdmin reports whether the context carries a verified admin account.
func IsAdmin(ctx context.Context) bool {
	u, ok := UserFromContext(ctx)
	return ok && u.Role == RoleAdmin
}
