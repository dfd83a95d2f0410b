package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"sfpark-collector/config"
	"sfpark-collector/internal/mw"
	"sfpark-collector/internal/store"
)

// NewRouter creates and configures a new Gin router over the ingested tables.
func NewRouter(s store.Store, stats StatsSource, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handler := NewHandler(s, stats)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		// Live counters are never cached.
		api.GET("/status", handler.GetStatus)

		api.GET("/locations", caching, handler.ListLocations)
		api.GET("/locations/:id", caching, handler.GetLocation)
		api.GET("/locations/:id/availability", caching, handler.GetAvailability)
		api.GET("/locations/:id/rates", caching, handler.GetRates)
		api.GET("/locations/:id/hours", caching, handler.GetHours)
	}

	return r
}
