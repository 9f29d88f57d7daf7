package promotion

import (
	"github.com/smallbiznis/autoparts/internal/promotion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promotion.service",
	fx.Provide(service.New),
)
