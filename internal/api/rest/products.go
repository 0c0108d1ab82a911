package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/products?type=&manufacturer=&limit=
func (s *Server) listProducts(c *gin.Context) {
	filter := catalog.Filter{
		ProductType:  types.ProductType(c.Query("type")),
		Manufacturer: c.Query("manufacturer"),
	}
	if filter.ProductType != "" && !types.ValidProductTypes[filter.ProductType] {
		respondError(c, types.AreaCatalog, http.StatusBadRequest, "Unknown product type", gin.H{"type": filter.ProductType})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, types.AreaCatalog, http.StatusBadRequest, "Invalid limit", raw)
			return
		}
		filter.Limit = limit
	}

	products, err := s.catalog.List(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		respondError(c, types.AreaCatalog, http.StatusInternalServerError, "Failed to list products", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GET /api/v1/products/:id
func (s *Server) getProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, types.AreaCatalog, http.StatusBadRequest, "Invalid product ID", c.Param("id"))
		return
	}

	product, err := s.catalog.Get(c.Request.Context(), id)
	if err != nil {
		productError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func productError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(c, types.AreaCatalog, http.StatusNotFound, "Product not found", err.Error())
		return
	}
	respondError(c, types.AreaCatalog, http.StatusInternalServerError, "Failed to load product", err.Error())
}
