// Package authctx carries the authenticated shopper on a request context.
package authctx

import (
	"context"
	"errors"
)

var ErrMissingActor = errors.New("missing_actor")

// Actor is the user bound to the current request.
type Actor struct {
	UserID    int64
	SessionID int64
	Email     string
	IsAdmin   bool
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// UserIDFromContext returns the user id or ErrMissingActor for anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return 0, ErrMissingActor
	}
	return actor.UserID, nil
}
