package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/autoparts/internal/authctx"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"go.uber.org/zap"
)

func (s *Server) SyncChanges(c *gin.Context) {
	var req syncdomain.ChangesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.syncSvc.Changes(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) SyncPull(c *gin.Context) {
	var since int64
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, syncdomain.ErrInvalidWatermark)
			return
		}
		since = parsed
	}

	resp, err := s.syncSvc.Pull(requestContext(c), since)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SyncSocket hands the connection to the realtime hub. The upgrader writes
// its own response on failure.
func (s *Server) SyncSocket(c *gin.Context) {
	userID, err := authctx.UserIDFromContext(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.hub.Serve(c.Writer, c.Request, userID); err != nil {
		s.log.Debug("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
