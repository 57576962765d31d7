package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Opsightlive/opsight-live-sub001/internal/config"
	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
)

func NewRouter(logger *logging.Logger, cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		// Monitor trigger
		api.POST("/monitor/run", h.RunMonitor)

		// Ingestion
		api.POST("/documents/process", h.ProcessDocument)
		api.POST("/integrations/sync", h.SyncIntegration)

		// Read surface for the dashboard
		api.GET("/alerts/user/:user_id", h.GetAlertsByUserID)
		api.GET("/notifications/user/:user_id", h.GetNotificationsByUserID)

		// Realtime dashboard subscription
		api.GET("/ws/:user_id", h.Subscribe)
	}
	return r
}
