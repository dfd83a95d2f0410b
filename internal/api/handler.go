package api

import (
	"sfpark-collector/internal/collector"
	"sfpark-collector/internal/store"
)

// StatsSource exposes the collector's counters to the API.
type StatsSource interface {
	Stats() collector.Stats
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
	stats StatsSource
}

// NewHandler creates a new API handler. stats may be nil.
func NewHandler(s store.Store, stats StatsSource) *Handler {
	return &Handler{
		store: s,
		stats: stats,
	}
}
