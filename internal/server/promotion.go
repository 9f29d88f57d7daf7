package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
)

func (s *Server) ListBundleOffers(c *gin.Context) {
	offers, err := s.promotionSvc.ListBundleOffers(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (s *Server) GetBundleOffer(c *gin.Context) {
	offer, err := s.promotionSvc.GetBundleOffer(requestContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (s *Server) ListPromotions(c *gin.Context) {
	var req promotiondomain.ListPromotionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	promotions, err := s.promotionSvc.ListPromotions(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotions)
}

func (s *Server) HomeSlider(c *gin.Context) {
	slides, err := s.promotionSvc.HomeSlider(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, slides)
}

func (s *Server) CreateBundleOffer(c *gin.Context) {
	var req promotiondomain.BundleOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	offer, err := s.promotionSvc.CreateBundleOffer(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (s *Server) UpdateBundleOffer(c *gin.Context) {
	var req promotiondomain.BundleOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	offer, err := s.promotionSvc.UpdateBundleOffer(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (s *Server) DeleteBundleOffer(c *gin.Context) {
	if err := s.promotionSvc.DeleteBundleOffer(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CreatePromotion(c *gin.Context) {
	var req promotiondomain.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	promotion, err := s.promotionSvc.CreatePromotion(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promotion)
}

func (s *Server) UpdatePromotion(c *gin.Context) {
	var req promotiondomain.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	promotion, err := s.promotionSvc.UpdatePromotion(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotion)
}

func (s *Server) DeletePromotion(c *gin.Context) {
	if err := s.promotionSvc.DeletePromotion(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
