package auth

import "context"

type contextKey struct{}

// AuthContext identifies the signed-in user for the duration of a request.
// PublicID is the user's opaque share id, carried here so handlers can
// scope realtime broadcasts without a user lookup.
type AuthContext struct {
	UserID    int64
	PublicID  string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func PublicID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.PublicID
}
