package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sfpark-collector/internal/collector"
	"sfpark-collector/internal/store"
)

type statusResponse struct {
	Collector *collector.Stats `json:"collector,omitempty"`
	Rows      store.Counts     `json:"rows"`
}

// GetStatus handles the GET /api/status request.
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.Counts(c.Request.Context())
	if err != nil {
		zap.L().Error("count rows", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to count rows"})
		return
	}

	resp := statusResponse{Rows: counts}
	if h.stats != nil {
		st := h.stats.Stats()
		resp.Collector = &st
	}
	c.JSON(http.StatusOK, resp)
}
