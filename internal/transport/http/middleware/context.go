package middleware

import (
	"context"

	"hraccess/internal/auth"
	"hraccess/internal/domain/access"
	"hraccess/internal/requestctx"
)

type ctxKey string

const (
	ctxKeyUser     ctxKey = "user"
	ctxKeySnapshot ctxKey = "snapshot"
)

// WithUser attaches the caller identity resolved from a bearer token.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func withSnapshot(ctx context.Context, snap *access.Snapshot) context.Context {
	return context.WithValue(ctx, ctxKeySnapshot, snap)
}

// GetSnapshot returns the access snapshot loaded by one of the guards
// earlier in the chain.
func GetSnapshot(ctx context.Context) (*access.Snapshot, bool) {
	snap, ok := ctx.Value(ctxKeySnapshot).(*access.Snapshot)
	return snap, ok && snap != nil
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
