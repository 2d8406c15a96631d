package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videolens/config"
)

func (s *Server) registerConfigRoutes(r *gin.Engine) {
	r.GET("/api/config", s.handleGetConfig)
	r.PUT("/api/config", s.handleUpdateConfig)
}

// handleGetConfig returns the live configuration.
func (s *Server) handleGetConfig(c *gin.Context) {
	respondData(c, s.Cfg.Snapshot())
}

// handleUpdateConfig merges a partial update and returns the result.
func (s *Server) handleUpdateConfig(c *gin.Context) {
	var update config.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "invalid config payload: "+err.Error())
		return
	}

	updated := s.Cfg.Apply(update)
	s.Logger.Info("config updated",
		"region", updated.AWSRegion,
		"pegasus_model", updated.PegasusModelID,
		"claude_model", updated.ClaudeModelID)

	c.JSON(http.StatusOK, Envelope{Success: true, Data: updated, Message: "Configuration updated."})
}
