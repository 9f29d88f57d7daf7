package auth

import (
	"github.com/smallbiznis/autoparts/internal/auth/repository"
	"github.com/smallbiznis/autoparts/internal/auth/service"
	"github.com/smallbiznis/autoparts/internal/auth/session"
	"go.uber.org/fx"
)

// Module wires shopper accounts and the cookie session manager they sign in through.
var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
