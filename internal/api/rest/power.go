package rest

import (
	"net/http"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
)

// DeviceSetRequest names the devices to analyse, either as catalog ids or
// inline. Inline devices win when both are given.
type DeviceSetRequest struct {
	ProductIDs []int             `json:"product_ids"`
	Devices    []types.DeviceRow `json:"devices"`
}

type ValidateRequest struct {
	Output       types.Jack `json:"output"`
	Input        types.Jack `json:"input"`
	CumulativeMA *int       `json:"cumulative_ma"`
}

type CalculateRequest struct {
	SupplyID int   `json:"supply_id" binding:"required"`
	PedalIDs []int `json:"pedal_ids"`
}

// rowsFor resolves ids against the catalog. On failure the response has
// been written.
func (s *Server) rowsFor(c *gin.Context, ids []int) ([]types.DeviceRow, bool) {
	rows, missing, err := catalog.Rows(c.Request.Context(), s.catalog, ids)
	if err != nil {
		respondError(c, types.AreaCatalog, http.StatusInternalServerError, "Failed to resolve products", err.Error())
		return nil, false
	}
	if len(missing) > 0 {
		respondError(c, types.AreaCatalog, http.StatusNotFound, "Unknown products", gin.H{"missing": missing})
		return nil, false
	}
	return rows, true
}

func (s *Server) bindDeviceSet(c *gin.Context) ([]types.DeviceRow, bool) {
	var req DeviceSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Invalid request body", err.Error())
		return nil, false
	}
	if len(req.Devices) > 0 {
		return req.Devices, true
	}
	return s.rowsFor(c, req.ProductIDs)
}

// POST /api/v1/power/budget
func (s *Server) powerBudget(c *gin.Context) {
	rows, ok := s.bindDeviceSet(c)
	if !ok {
		return
	}
	data := power.ExtractPowerData(rows)
	c.JSON(http.StatusOK, gin.H{
		"budget":  data,
		"insight": power.Insight(data),
	})
}

// POST /api/v1/power/assignments
func (s *Server) powerAssignments(c *gin.Context) {
	rows, ok := s.bindDeviceSet(c)
	if !ok {
		return
	}
	data := power.ExtractPowerData(rows)
	c.JSON(http.StatusOK, power.AssignPedalsToOutputs(data.Consumers, data.Supplies))
}

// POST /api/v1/power/daisy-chains
func (s *Server) powerDaisyChains(c *gin.Context) {
	rows, ok := s.bindDeviceSet(c)
	if !ok {
		return
	}
	data := power.ExtractPowerData(rows)
	c.JSON(http.StatusOK, gin.H{
		"groups": power.ComputeDaisyChainGroups(data.Consumers, data.AllOutputJacks),
	})
}

// POST /api/v1/power/audit
func (s *Server) powerAudit(c *gin.Context) {
	rows, ok := s.bindDeviceSet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, power.Analyze(rows).Report)
}

// POST /api/v1/power/analyze
func (s *Server) powerAnalyze(c *gin.Context) {
	rows, ok := s.bindDeviceSet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, power.Analyze(rows))
}

// POST /api/v1/power/validate
func (s *Server) validateConnection(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	c.JSON(http.StatusOK, power.ValidateConnection(req.Output, req.Input, req.CumulativeMA))
}

// POST /api/v1/power/calculate
func (s *Server) calculateBudget(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	supply, err := s.catalog.Get(c.Request.Context(), req.SupplyID)
	if err != nil {
		productError(c, err)
		return
	}
	if supply.ProductType != types.ProductTypePowerSupply {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Product is not a power supply",
			gin.H{"supply_id": supply.ID, "product_type": supply.ProductType})
		return
	}

	pedals, ok := s.rowsFor(c, req.PedalIDs)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, power.Calculate(supply.Row(""), pedals))
}

// GET /api/v1/power/supplies/match?pedal_ids=1,2
func (s *Server) matchSupplies(c *gin.Context) {
	ids, err := catalog.ParseIDs(c.Query("pedal_ids"))
	if err != nil {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Invalid pedal_ids", err.Error())
		return
	}
	if len(ids) == 0 {
		respondError(c, types.AreaPower, http.StatusBadRequest, "pedal_ids is required", nil)
		return
	}

	pedals, ok := s.rowsFor(c, ids)
	if !ok {
		return
	}
	supplies, err := s.catalog.List(c.Request.Context(), catalog.Filter{ProductType: types.ProductTypePowerSupply})
	if err != nil {
		respondError(c, types.AreaCatalog, http.StatusInternalServerError, "Failed to list supplies", err.Error())
		return
	}

	required := power.RequiredDraw(pedals)
	c.JSON(http.StatusOK, gin.H{
		"required_ma": required,
		"supplies":    power.MatchSupplies(required, supplies),
	})
}

// GET /api/v1/power/supply-link?product_ids=1,2
func (s *Server) supplyLink(c *gin.Context) {
	ids, err := catalog.ParseIDs(c.Query("product_ids"))
	if err != nil {
		respondError(c, types.AreaPower, http.StatusBadRequest, "Invalid product_ids", err.Error())
		return
	}
	rows, ok := s.rowsFor(c, ids)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": power.SupplyLinkFor(power.ExtractPowerData(rows))})
}
