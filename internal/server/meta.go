package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/autoparts/pkg/db"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

func (s *Server) Root(c *gin.Context) {
	sf := s.storefront.Get()
	c.JSON(http.StatusOK, gin.H{
		"message":      s.cfg.AppName + " API",
		"version":      sf.APIVersion,
		"architecture": "modular",
		"status":       "running",
	})
}

func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
	defer cancel()

	database := "healthy"
	if err := db.Ping(ctx, s.db); err != nil {
		s.log.Warn("database health check failed", zap.Error(err))
		database = "unhealthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"api_version": s.storefront.Get().APIVersion,
		"database":    database,
		"ws_clients":  s.hub.ClientCount(),
	})
}

func (s *Server) Version(c *gin.Context) {
	sf := s.storefront.Get()
	c.JSON(http.StatusOK, gin.H{
		"api_version":          sf.APIVersion,
		"build_date":           sf.BuildDate,
		"min_frontend_version": sf.MinFrontendVersion,
		"features":             sf.Features,
	})
}
