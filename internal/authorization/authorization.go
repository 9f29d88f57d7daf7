package authorization

import (
	"context"
	"errors"

	"go.uber.org/fx"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

const (
	RoleAdmin   = "role:admin"
	RoleShopper = "role:shopper"
)

// Service decides whether the request's actor may perform action on object.
type Service interface {
	Authorize(ctx context.Context, object string, action string) error
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
