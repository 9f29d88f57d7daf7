package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/autoparts/internal/auth"
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/auth/session"
	"github.com/smallbiznis/autoparts/internal/authorization"
	"github.com/smallbiznis/autoparts/internal/cart"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	"github.com/smallbiznis/autoparts/internal/catalog"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	"github.com/smallbiznis/autoparts/internal/comment"
	commentdomain "github.com/smallbiznis/autoparts/internal/comment/domain"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/smallbiznis/autoparts/internal/favorite"
	favoritedomain "github.com/smallbiznis/autoparts/internal/favorite/domain"
	"github.com/smallbiznis/autoparts/internal/migration"
	"github.com/smallbiznis/autoparts/internal/observability"
	obslogger "github.com/smallbiznis/autoparts/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/autoparts/internal/observability/metrics"
	obstracing "github.com/smallbiznis/autoparts/internal/observability/tracing"
	"github.com/smallbiznis/autoparts/internal/order"
	orderdomain "github.com/smallbiznis/autoparts/internal/order/domain"
	"github.com/smallbiznis/autoparts/internal/product"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	"github.com/smallbiznis/autoparts/internal/promotion"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
	"github.com/smallbiznis/autoparts/internal/realtime"
	"github.com/smallbiznis/autoparts/internal/synclog"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	synclog.Module,
	realtime.Module,
	catalog.Module,
	product.Module,
	promotion.Module,
	cart.Module,
	order.Module,
	favorite.Module,
	comment.Module,
	migration.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	if obsCfg.MetricsPath != "" {
		r.GET(obsCfg.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

// corsMiddleware echoes the request origin when "*" is configured so session
// cookies still work cross-origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", obslogger.RequestIDHeader},
		ExposeHeaders:    []string{obslogger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	storefront   *config.StorefrontHolder
	authsvc      authdomain.Service
	sessions     *session.Manager
	authzSvc     authorization.Service
	catalogSvc   catalogdomain.Service
	productSvc   productdomain.Service
	promotionSvc promotiondomain.Service
	cartSvc      cartdomain.Service
	orderSvc     orderdomain.Service
	favoriteSvc  favoritedomain.Service
	commentSvc   commentdomain.Service
	syncSvc      syncdomain.Service
	hub          *realtime.Hub
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	Storefront   *config.StorefrontHolder
	Authsvc      authdomain.Service
	Sessions     *session.Manager
	AuthzSvc     authorization.Service
	CatalogSvc   catalogdomain.Service
	ProductSvc   productdomain.Service
	PromotionSvc promotiondomain.Service
	CartSvc      cartdomain.Service
	OrderSvc     orderdomain.Service
	FavoriteSvc  favoritedomain.Service
	CommentSvc   commentdomain.Service
	SyncSvc      syncdomain.Service
	Hub          *realtime.Hub
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		storefront:   p.Storefront,
		authsvc:      p.Authsvc,
		sessions:     p.Sessions,
		authzSvc:     p.AuthzSvc,
		catalogSvc:   p.CatalogSvc,
		productSvc:   p.ProductSvc,
		promotionSvc: p.PromotionSvc,
		cartSvc:      p.CartSvc,
		orderSvc:     p.OrderSvc,
		favoriteSvc:  p.FavoriteSvc,
		commentSvc:   p.CommentSvc,
		syncSvc:      p.SyncSvc,
		hub:          p.Hub,
	}

	svc.registerMetaRoutes()
	svc.registerAuthRoutes()
	svc.registerPublicRoutes()
	svc.registerShopperRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerMetaRoutes() {
	s.engine.GET("/", s.Root)
	s.engine.GET("/api/health", s.Health)
	s.engine.GET("/api/version", s.Version)
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api", s.OptionalAuth())

	api.GET("/car-brands", s.ListCarBrands)
	api.GET("/car-models", s.ListCarModels)
	api.GET("/car-models/:id", s.GetCarModel)
	api.GET("/product-brands", s.ListProductBrands)
	api.GET("/categories", s.ListCategories)
	api.GET("/categories/tree", s.CategoryTree)
	api.GET("/categories/:id", s.GetCategory)

	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProduct)
	api.GET("/products/:id/comments", s.ListComments)

	api.GET("/bundle-offers", s.ListBundleOffers)
	api.GET("/bundle-offers/:id", s.GetBundleOffer)
	api.GET("/promotions", s.ListPromotions)
	api.GET("/marketing/home-slider", s.HomeSlider)
}

func (s *Server) registerShopperRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	cart := api.Group("/cart")
	{
		cart.GET("", s.GetCart)
		cart.POST("/add", s.AddCartItem)
		cart.PUT("/update", s.UpdateCartItem)
		cart.DELETE("/items/:product_id", s.RemoveCartItem)
		cart.DELETE("/void-bundle/:group_id", s.VoidCartBundle)
		cart.DELETE("/clear", s.ClearCart)
		cart.POST("/validate-stock", s.ValidateCartStock)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", s.CreateOrder)
		orders.GET("", s.ListMyOrders)
		orders.GET("/:id", s.GetMyOrder)
	}

	api.GET("/favorites", s.ListFavorites)
	api.POST("/favorites/toggle", s.ToggleFavorite)

	api.POST("/products/:id/comments", s.CreateComment)
	api.DELETE("/comments/:id", s.DeleteComment)

	api.GET("/sync/changes", s.SyncChanges)
	api.GET("/sync/pull", s.SyncPull)
	api.GET("/ws/sync", s.SyncSocket)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired())

	admin.POST("/car-brands", s.authorize(authorization.ObjectCatalog, authorization.ActionCreate), s.CreateCarBrand)
	admin.PUT("/car-brands/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionUpdate), s.UpdateCarBrand)
	admin.DELETE("/car-brands/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionDelete), s.DeleteCarBrand)

	admin.POST("/car-models", s.authorize(authorization.ObjectCatalog, authorization.ActionCreate), s.CreateCarModel)
	admin.PUT("/car-models/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionUpdate), s.UpdateCarModel)
	admin.DELETE("/car-models/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionDelete), s.DeleteCarModel)

	admin.POST("/product-brands", s.authorize(authorization.ObjectCatalog, authorization.ActionCreate), s.CreateProductBrand)
	admin.PUT("/product-brands/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionUpdate), s.UpdateProductBrand)
	admin.DELETE("/product-brands/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionDelete), s.DeleteProductBrand)

	admin.POST("/categories", s.authorize(authorization.ObjectCatalog, authorization.ActionCreate), s.CreateCategory)
	admin.PUT("/categories/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionUpdate), s.UpdateCategory)
	admin.DELETE("/categories/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionDelete), s.DeleteCategory)

	admin.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionCreate), s.CreateProduct)
	admin.PUT("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionUpdate), s.UpdateProduct)
	admin.DELETE("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionDelete), s.DeleteProduct)

	admin.POST("/bundle-offers", s.authorize(authorization.ObjectPromotion, authorization.ActionCreate), s.CreateBundleOffer)
	admin.PUT("/bundle-offers/:id", s.authorize(authorization.ObjectPromotion, authorization.ActionUpdate), s.UpdateBundleOffer)
	admin.DELETE("/bundle-offers/:id", s.authorize(authorization.ObjectPromotion, authorization.ActionDelete), s.DeleteBundleOffer)

	admin.POST("/promotions", s.authorize(authorization.ObjectPromotion, authorization.ActionCreate), s.CreatePromotion)
	admin.PUT("/promotions/:id", s.authorize(authorization.ObjectPromotion, authorization.ActionUpdate), s.UpdatePromotion)
	admin.DELETE("/promotions/:id", s.authorize(authorization.ObjectPromotion, authorization.ActionDelete), s.DeletePromotion)

	admin.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.ListOrders)
	admin.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.GetOrder)
	admin.PATCH("/orders/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionUpdateStatus), s.UpdateOrderStatus)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
