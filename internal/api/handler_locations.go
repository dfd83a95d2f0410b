package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sfpark-collector/internal/parse"
	"sfpark-collector/internal/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ListLocations handles the GET /api/locations request.
func (h *Handler) ListLocations(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	locs, err := h.store.ListLocations(c.Request.Context(), limit, offset)
	if err != nil {
		internalError(c, "Failed to retrieve locations", err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

// GetLocation handles the GET /api/locations/:id request.
func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}

	loc, err := h.store.GetLocation(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to retrieve location", err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// GetAvailability handles the GET /api/locations/:id/availability request.
// Without ?date= it returns the newest observations across all days.
func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}
	dateID, ok := dateQuery(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, err := h.store.Availability(c.Request.Context(), id, dateID, limit)
	if err != nil {
		internalError(c, "Failed to retrieve availability", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetRates handles the GET /api/locations/:id/rates request. Without ?date= the
// latest recorded schedule is returned.
func (h *Handler) GetRates(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}
	dateID, ok := dateQuery(c)
	if !ok {
		return
	}

	rows, err := h.store.Rates(c.Request.Context(), id, dateID)
	if err != nil {
		internalError(c, "Failed to retrieve rates", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetHours handles the GET /api/locations/:id/hours request.
func (h *Handler) GetHours(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}
	dateID, ok := dateQuery(c)
	if !ok {
		return
	}

	rows, err := h.store.Hours(c.Request.Context(), id, dateID)
	if err != nil {
		internalError(c, "Failed to retrieve operating hours", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func locationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return 0, false
	}
	return id, true
}

// dateQuery parses ?date=YYYYMMDD into a date bucket; absent means 0.
func dateQuery(c *gin.Context) (int, bool) {
	raw := c.Query("date")
	if raw == "" {
		return 0, true
	}
	day, err := time.Parse("20060102", raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'date' format. Use YYYYMMDD."})
		return 0, false
	}
	return parse.DateID(day), true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + name + "' parameter"})
		return 0, false
	}
	return v, true
}

func internalError(c *gin.Context, msg string, err error) {
	zap.L().Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}
