package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	commentdomain "github.com/smallbiznis/autoparts/internal/comment/domain"
)

type toggleFavoriteRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) ListFavorites(c *gin.Context) {
	favorites, err := s.favoriteSvc.List(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (s *Server) ToggleFavorite(c *gin.Context) {
	var req toggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.favoriteSvc.Toggle(requestContext(c), req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListComments(c *gin.Context) {
	comments, err := s.commentSvc.ListByProduct(requestContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) CreateComment(c *gin.Context) {
	var req commentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProductID = c.Param("id")

	comment, err := s.commentSvc.Create(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) DeleteComment(c *gin.Context) {
	if err := s.commentSvc.Delete(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
