package synclog

import (
	"github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/internal/synclog/repository"
	"github.com/smallbiznis/autoparts/internal/synclog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("synclog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) domain.Recorder { return s }),
)
