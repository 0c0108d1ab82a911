package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KevinKickass/OpenPedalCore/internal/diagram"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/KevinKickass/OpenPedalCore/internal/workbench"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkbenchRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddItemRequest struct {
	ProductID int `json:"product_id" binding:"required"`
}

type PositionRequest struct {
	InstanceID string  `json:"instance_id" binding:"required"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// workbenchError maps manager errors onto API errors.
func (s *Server) workbenchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workbench.ErrNotFound),
		errors.Is(err, workbench.ErrItemNotFound):
		respondError(c, types.AreaWorkbench, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, workbench.ErrConnectionNotFound):
		respondError(c, types.AreaDiagram, http.StatusNotFound, "Connection not found", err.Error())
	case errors.Is(err, workbench.ErrInvalidName):
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid name", err.Error())
	case errors.Is(err, diagram.ErrUnknownPort):
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Unknown port", err.Error())
	case errors.Is(err, workbench.ErrNoCatalog):
		respondError(c, types.AreaWorkbench, http.StatusServiceUnavailable, "Catalog unavailable", err.Error())
	default:
		s.logger.Error("Workbench operation failed", zap.Error(err))
		respondError(c, types.AreaWorkbench, http.StatusInternalServerError, "Workbench operation failed", err.Error())
	}
}

// GET /api/v1/workbenches
func (s *Server) listWorkbenches(c *gin.Context) {
	benches, active := s.workbenches.List()
	c.JSON(http.StatusOK, gin.H{
		"workbenches":         benches,
		"active_workbench_id": active,
	})
}

// GET /api/v1/workbenches/:id
func (s *Server) getWorkbench(c *gin.Context) {
	wb, err := s.workbenches.Get(c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, wb)
}

// POST /api/v1/workbenches
func (s *Server) createWorkbench(c *gin.Context) {
	var req WorkbenchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	wb, err := s.workbenches.Create(c.Request.Context(), req.Name)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wb)
}

// PATCH /api/v1/workbenches/:id
func (s *Server) renameWorkbench(c *gin.Context) {
	var req WorkbenchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	wb, err := s.workbenches.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, wb)
}

// DELETE /api/v1/workbenches/:id
func (s *Server) deleteWorkbench(c *gin.Context) {
	if err := s.workbenches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.workbenchError(c, err)
		return
	}
	_, active := s.workbenches.List()
	c.JSON(http.StatusOK, gin.H{
		"message":             "workbench deleted",
		"active_workbench_id": active,
	})
}

// POST /api/v1/workbenches/:id/activate
func (s *Server) activateWorkbench(c *gin.Context) {
	if err := s.workbenches.SetActive(c.Request.Context(), c.Param("id")); err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.workbenches.ActiveWorkbench())
}

// POST /api/v1/workbenches/:id/items
func (s *Server) addItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	product, err := s.catalog.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		productError(c, err)
		return
	}

	item, err := s.workbenches.AddItem(c.Request.Context(), c.Param("id"), product.ID, product.ProductType)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DELETE /api/v1/workbenches/:id/items/:instance
func (s *Server) removeItem(c *gin.Context) {
	if err := s.workbenches.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("instance")); err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

func productParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("product"))
	if err != nil {
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid product ID", c.Param("product"))
		return 0, false
	}
	return id, true
}

// DELETE /api/v1/workbenches/:id/products/:product
func (s *Server) removeProduct(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	removed, err := s.workbenches.RemoveAllInstances(c.Request.Context(), c.Param("id"), productID)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// GET /api/v1/workbenches/:id/products/:product/count
func (s *Server) countProduct(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	n, err := s.workbenches.Count(c.Param("id"), productID)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "count": n})
}

// POST /api/v1/workbenches/:id/clear
func (s *Server) clearWorkbench(c *gin.Context) {
	if err := s.workbenches.Clear(c.Request.Context(), c.Param("id")); err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "workbench cleared"})
}

// GET /api/v1/workbenches/:id/positions/:view
func (s *Server) getViewPositions(c *gin.Context) {
	positions, err := s.workbenches.ViewPositions(c.Param("id"), c.Param("view"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": c.Param("view"), "positions": positions})
}

// PUT /api/v1/workbenches/:id/positions/:view
func (s *Server) setViewPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaWorkbench, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	err := s.workbenches.SetViewPosition(c.Request.Context(), c.Param("id"), c.Param("view"), req.InstanceID,
		types.Point{X: req.X, Y: req.Y})
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "position updated"})
}

// GET /api/v1/workbenches/:id/power
func (s *Server) getWorkbenchPower(c *gin.Context) {
	view, err := s.workbenches.Power(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
