package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextActorIDKey   ctxKey = "actorID"
	ContextActorRoleKey ctxKey = "actorRole"
)

// ContextWithActor records who is acting on the request for logging and auditing.
func ContextWithActor(ctx context.Context, actorID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextActorIDKey, actorID)
	return context.WithValue(ctx, ContextActorRoleKey, role)
}

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextActorIDKey).(string); ok {
		return id
	}
	return ""
}

func ActorRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if role, ok := ctx.Value(ContextActorRoleKey).(string); ok {
		return role
	}
	return ""
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
