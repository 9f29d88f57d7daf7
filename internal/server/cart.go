package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
)

func (s *Server) GetCart(c *gin.Context) {
	cart, err := s.cartSvc.Get(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (s *Server) AddCartItem(c *gin.Context) {
	var req cartdomain.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.cartSvc.AddItem(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type updateCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) UpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.cartSvc.UpdateItem(requestContext(c), cartdomain.UpdateItemRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	if err := s.cartSvc.RemoveItem(requestContext(c), c.Param("product_id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (s *Server) VoidCartBundle(c *gin.Context) {
	items, err := s.cartSvc.VoidBundle(requestContext(c), c.Param("group_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Bundle discount removed",
		"items":   items,
	})
}

func (s *Server) ClearCart(c *gin.Context) {
	if err := s.cartSvc.Clear(requestContext(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (s *Server) ValidateCartStock(c *gin.Context) {
	resp, err := s.cartSvc.ValidateStock(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
