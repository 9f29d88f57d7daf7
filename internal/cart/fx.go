package cart

import (
	"github.com/smallbiznis/autoparts/internal/cart/domain"
	"github.com/smallbiznis/autoparts/internal/cart/repository"
	"github.com/smallbiznis/autoparts/internal/cart/service"
	"github.com/smallbiznis/autoparts/internal/config"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(h *config.StorefrontHolder) domain.ShippingResolver { return h }),
	fx.Provide(func(s promotiondomain.Service) domain.BundleResolver { return s }),
)
