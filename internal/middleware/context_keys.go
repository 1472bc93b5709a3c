package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// contextKey namespaces values this package stores in contexts.
type contextKey string

// actorIDKey is the key used to store the authenticated actor's ID in the request context.
const actorIDKey = contextKey("actorID")

// WithActorID returns a context carrying the authenticated actor id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorIDFromCtx returns the actor id stored by the auth middleware.
func ActorIDFromCtx(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	return actorID, ok && actorID != ""
}

// GetActorIDFromContext retrieves the authenticated actor ID from the Gin request.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	return ActorIDFromCtx(c.Request.Context())
}
