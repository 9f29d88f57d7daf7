package comment

import (
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/comment/domain"
	"github.com/smallbiznis/autoparts/internal/comment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("comment.service",
	fx.Provide(service.New),
	fx.Provide(func(s authdomain.Service) domain.UserDirectory { return s }),
)
