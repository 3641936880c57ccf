package middleware

import "context"

type contextKey string

const actorHolderKey contextKey = "log_actor"

type actorHolder struct {
	id int64
}

func withActorHolder(ctx context.Context, h *actorHolder) context.Context {
	return context.WithValue(ctx, actorHolderKey, h)
}
