package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
)

func (s *Server) ListCarBrands(c *gin.Context) {
	brands, err := s.catalogSvc.ListCarBrands(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (s *Server) ListCarModels(c *gin.Context) {
	var req catalogdomain.ListCarModelsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	models, err := s.catalogSvc.ListCarModels(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models)
}

func (s *Server) GetCarModel(c *gin.Context) {
	model, err := s.catalogSvc.GetCarModel(requestContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) ListProductBrands(c *gin.Context) {
	brands, err := s.catalogSvc.ListProductBrands(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (s *Server) ListCategories(c *gin.Context) {
	categories, err := s.catalogSvc.ListCategories(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) CategoryTree(c *gin.Context) {
	tree, err := s.catalogSvc.CategoryTree(requestContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// GetCategory accepts either an id or a slug.
func (s *Server) GetCategory(c *gin.Context) {
	category, err := s.catalogSvc.GetCategory(requestContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Server) CreateCarBrand(c *gin.Context) {
	var req catalogdomain.CarBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	brand, err := s.catalogSvc.CreateCarBrand(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (s *Server) UpdateCarBrand(c *gin.Context) {
	var req catalogdomain.CarBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	brand, err := s.catalogSvc.UpdateCarBrand(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (s *Server) DeleteCarBrand(c *gin.Context) {
	if err := s.catalogSvc.DeleteCarBrand(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CreateCarModel(c *gin.Context) {
	var req catalogdomain.CarModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	model, err := s.catalogSvc.CreateCarModel(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model)
}

func (s *Server) UpdateCarModel(c *gin.Context) {
	var req catalogdomain.CarModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	model, err := s.catalogSvc.UpdateCarModel(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) DeleteCarModel(c *gin.Context) {
	if err := s.catalogSvc.DeleteCarModel(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CreateProductBrand(c *gin.Context) {
	var req catalogdomain.ProductBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	brand, err := s.catalogSvc.CreateProductBrand(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (s *Server) UpdateProductBrand(c *gin.Context) {
	var req catalogdomain.ProductBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	brand, err := s.catalogSvc.UpdateProductBrand(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (s *Server) DeleteProductBrand(c *gin.Context) {
	if err := s.catalogSvc.DeleteProductBrand(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req catalogdomain.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.CreateCategory(requestContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) UpdateCategory(c *gin.Context) {
	var req catalogdomain.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.UpdateCategory(requestContext(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Server) DeleteCategory(c *gin.Context) {
	if err := s.catalogSvc.DeleteCategory(requestContext(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
