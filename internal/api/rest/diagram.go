package rest

import (
	"net/http"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
)

type SetConnectionsRequest struct {
	Connections []types.PowerConnection `json:"connections"`
}

type AcknowledgeRequest struct {
	Warning string `json:"warning" binding:"required"`
}

type ClickRequest struct {
	InstanceID string `json:"instance_id" binding:"required"`
	JackID     *int   `json:"jack_id" binding:"required"`
}

type SelectRequest struct {
	ConnectionID string `json:"connection_id" binding:"required"`
}

// GET /api/v1/workbenches/:id/connections
func (s *Server) listConnections(c *gin.Context) {
	wb, err := s.workbenches.Get(c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	conns := wb.PowerConnections
	if conns == nil {
		conns = []types.PowerConnection{}
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// POST /api/v1/workbenches/:id/connections
func (s *Server) addConnection(c *gin.Context) {
	var conn types.PowerConnection
	if err := c.ShouldBindJSON(&conn); err != nil {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if conn.SourceInstanceID == "" || conn.TargetInstanceID == "" {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "source_instance_id and target_instance_id are required", nil)
		return
	}

	created, err := s.workbenches.AddConnection(c.Request.Context(), c.Param("id"), conn)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/v1/workbenches/:id/connections
func (s *Server) setConnections(c *gin.Context) {
	var req SetConnectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	conns, err := s.workbenches.SetConnections(c.Request.Context(), c.Param("id"), req.Connections)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// DELETE /api/v1/workbenches/:id/connections/:conn
func (s *Server) removeConnection(c *gin.Context) {
	if err := s.workbenches.RemoveConnection(c.Request.Context(), c.Param("id"), c.Param("conn")); err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "connection removed"})
}

// POST /api/v1/workbenches/:id/connections/:conn/acknowledge
func (s *Server) acknowledgeWarning(c *gin.Context) {
	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	conns, err := s.workbenches.AcknowledgeWarning(c.Request.Context(), c.Param("id"), c.Param("conn"), req.Warning)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// POST /api/v1/workbenches/:id/auto-assign
func (s *Server) autoAssign(c *gin.Context) {
	conns, err := s.workbenches.AutoAssign(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// GET /api/v1/workbenches/:id/diagram
func (s *Server) getInteraction(c *gin.Context) {
	in, err := s.workbenches.Interaction(c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

// POST /api/v1/workbenches/:id/diagram/click
func (s *Server) diagramClick(c *gin.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	in, err := s.workbenches.ClickPort(c.Request.Context(), c.Param("id"), req.InstanceID, *req.JackID)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

// POST /api/v1/workbenches/:id/diagram/cancel
func (s *Server) diagramCancel(c *gin.Context) {
	in, err := s.workbenches.CancelInteraction(c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

// POST /api/v1/workbenches/:id/diagram/select
func (s *Server) diagramSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaDiagram, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	in, err := s.workbenches.SelectConnection(c.Param("id"), req.ConnectionID)
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

// POST /api/v1/workbenches/:id/diagram/delete
func (s *Server) diagramDelete(c *gin.Context) {
	in, err := s.workbenches.DeleteSelected(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.workbenchError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}
