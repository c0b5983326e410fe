package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"feed-sync-service/internal/feeds"
	"feed-sync-service/internal/models"
	"feed-sync-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncHandler handles sync run endpoints
type SyncHandler struct {
	syncService   *services.SyncService
	rosterService *services.RosterService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.SyncService, rosterService *services.RosterService) *SyncHandler {
	return &SyncHandler{
		syncService:   syncService,
		rosterService: rosterService,
	}
}

// ListFeeds returns the feeds this service can sync
func (h *SyncHandler) ListFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.syncService.FeedNames()})
}

// CreateRun triggers a sync run for a feed and returns immediately
func (h *SyncHandler) CreateRun(c *gin.Context) {
	var req struct {
		Feed string `json:"feed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.syncService.Start(c.Request.Context(), req.Feed, models.TriggerAPI)
	if err != nil {
		switch {
		case errors.Is(err, feeds.ErrUnknownFeed):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": run})
}

// ListRuns returns recent sync runs
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	runs, err := h.syncService.ListRuns(c.Request.Context(), c.Query("feed"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs, "total": len(runs)})
}

// GetRun returns a single sync run
func (h *SyncHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	run, err := h.syncService.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

// RefreshRoster refreshes the cached shop SKU roster
func (h *SyncHandler) RefreshRoster(c *gin.Context) {
	count, err := h.rosterService.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"skus": count}})
}
