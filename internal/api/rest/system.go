package rest

import (
	"net/http"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	counts, err := s.catalog.Counts(c.Request.Context())
	if err != nil {
		respondError(c, types.AreaCatalog, http.StatusInternalServerError, "Failed to count products", err.Error())
		return
	}

	benches, active := s.workbenches.List()
	clients := 0
	if s.wsHub != nil {
		clients = s.wsHub.GetClientCount()
	}

	status := gin.H{
		"uptime_seconds":      int(time.Since(s.startedAt).Seconds()),
		"products":            counts,
		"workbenches":         len(benches),
		"active_workbench_id": active,
		"connected_clients":   clients,
		"auth_enabled":        s.authService.Enabled(),
	}
	if s.lifecycle != nil {
		status["system"] = s.lifecycle.GetCurrentStatus()
	}
	c.JSON(http.StatusOK, status)
}
