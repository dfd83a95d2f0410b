package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sfpark-collector/config"
	"sfpark-collector/internal/api"
	"sfpark-collector/internal/store"
)

func startServer(cfg config.ServerConfig, s store.Store, stats api.StatsSource) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(s, stats, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("HTTP server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return server
}

func stopServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zap.L().Warn("HTTP server shutdown", zap.Error(err))
		return
	}
	zap.L().Info("HTTP server gracefully stopped")
}
