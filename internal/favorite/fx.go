package favorite

import (
	"github.com/smallbiznis/autoparts/internal/favorite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("favorite.service",
	fx.Provide(service.New),
)
