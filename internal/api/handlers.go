package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Opsightlive/opsight-live-sub001/internal/db"
	"github.com/Opsightlive/opsight-live-sub001/internal/dispatch"
	"github.com/Opsightlive/opsight-live-sub001/internal/engine"
	"github.com/Opsightlive/opsight-live-sub001/internal/ingest"
	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/realtime"
)

type Handler struct {
	db        *db.DB
	logger    *logging.Logger
	orch      *engine.Orchestrator
	processor *dispatch.Processor
	documents *ingest.DocumentProcessor
	pmSync    *ingest.PMSyncer
	hub       *realtime.Hub
}

func NewHandler(db *db.DB, logger *logging.Logger, orch *engine.Orchestrator, processor *dispatch.Processor, documents *ingest.DocumentProcessor, pmSync *ingest.PMSyncer, hub *realtime.Hub) *Handler {
	return &Handler{
		db:        db,
		logger:    logger,
		orch:      orch,
		processor: processor,
		documents: documents,
		pmSync:    pmSync,
		hub:       hub,
	}
}

// RunMonitor triggers one monitor sweep. The operation selector picks
// KPI evaluation, notification dispatch, or both in sequence.
func (h *Handler) RunMonitor(c *gin.Context) {
	var req struct {
		Operation string `json:"operation" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid monitor trigger body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	switch req.Operation {
	case "kpi_check":
		batch, err := h.orch.RunKPICheck(ctx)
		if err != nil {
			h.logger.Errorf("KPI check failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "KPI check completed: " + strconv.Itoa(batch.AlertsTriggered) + " alerts triggered",
		})
	case "notification_dispatch":
		batch, err := h.processor.ProcessQueue(ctx)
		if err != nil {
			h.logger.Errorf("Notification dispatch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Dispatch completed: " + strconv.Itoa(batch.NotificationsSent) + " sent, " + strconv.Itoa(batch.NotificationsFailed) + " failed",
		})
	case "full":
		if _, err := h.orch.RunKPICheck(ctx); err != nil {
			h.logger.Errorf("KPI check failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if _, err := h.processor.ProcessQueue(ctx); err != nil {
			h.logger.Errorf("Notification dispatch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Full monitor run completed"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown operation: " + req.Operation})
	}
}

// ProcessDocument runs KPI extraction for one stored document.
func (h *Handler) ProcessDocument(c *gin.Context) {
	var req struct {
		DocumentID string `json:"document_id" binding:"required"`
		UserID     string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid document process body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	if err := h.documents.Process(c.Request.Context(), req.DocumentID, req.UserID); err != nil {
		h.logger.Errorf("Document %s processing failed: %v", req.DocumentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document processed"})
}

// SyncIntegration runs one PM-software sync pass.
func (h *Handler) SyncIntegration(c *gin.Context) {
	var req struct {
		IntegrationID string `json:"integration_id" binding:"required"`
		UserID        string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid integration sync body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	if err := h.pmSync.Sync(c.Request.Context(), req.IntegrationID, req.UserID); err != nil {
		h.logger.Errorf("Integration %s sync failed: %v", req.IntegrationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Integration synced"})
}

// GetAlertsByUserID lists a user's alert instances with pagination.
func (h *Handler) GetAlertsByUserID(c *gin.Context) {
	userID := c.Param("user_id")
	limit, offset := pagination(c)

	alerts, total, err := h.db.ListAlertsByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get alerts for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alerts"})
		return
	}

	h.logger.Infof("Retrieved %d alerts for user %s", len(alerts), userID)
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": total})
}

// GetNotificationsByUserID lists a user's notification jobs.
func (h *Handler) GetNotificationsByUserID(c *gin.Context) {
	userID := c.Param("user_id")
	limit, offset := pagination(c)

	jobs, err := h.db.ListNotificationsByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get notifications for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	h.logger.Infof("Retrieved %d notifications for user %s", len(jobs), userID)
	c.JSON(http.StatusOK, jobs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscribe upgrades to a WebSocket and registers the connection for
// dashboard alert pushes.
func (h *Handler) Subscribe(c *gin.Context) {
	userID := c.Param("user_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed for user %s: %v", userID, err)
		return
	}

	h.hub.AddConnection(userID, conn)
	go func() {
		defer func() {
			h.hub.RemoveConnection(userID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
