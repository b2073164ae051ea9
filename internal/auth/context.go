package auth

import "context"

// Identity is the verified operator behind a /v1 request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity set by RequireAccessToken. ok is false
// when the request was never authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" || id.Role == "" {
		return Identity{}, false
	}
	return id, true
}
