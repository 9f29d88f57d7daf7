package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"go.uber.org/zap"
)

// OptionalAuth binds the session's user when a valid token is present and
// lets anonymous requests through untouched.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authctx.ActorFromContext(c.Request.Context()); ok {
			c.Next()
			return
		}
		if token, ok := s.sessions.ReadToken(c); ok {
			if err := s.bindActor(c, token); err != nil {
				s.log.Debug("ignoring invalid session on public route", zap.Error(err))
			}
		}
		c.Next()
	}
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authctx.ActorFromContext(c.Request.Context()); ok {
			c.Next()
			return
		}

		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.bindActor(c, token); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) bindActor(c *gin.Context, token string) error {
	session, user, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		return err
	}

	ctx := authctx.WithActor(c.Request.Context(), authctx.Actor{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
	})
	c.Request = c.Request.WithContext(ctx)
	return nil
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
