package realtime

import (
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("realtime",
	fx.Provide(NewHub),
	fx.Provide(func(h *Hub) syncdomain.Publisher { return h }),
)
