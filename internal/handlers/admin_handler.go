package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marchelxyz/GeoCheck-sub000/internal/services"
)

// AdminHandler serves operational endpoints for the background jobs
type AdminHandler struct {
	cronSvc *services.CronService
	sweeper *services.ExpirySweeper
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(cronSvc *services.CronService, sweeper *services.ExpirySweeper) *AdminHandler {
	return &AdminHandler{
		cronSvc: cronSvc,
		sweeper: sweeper,
	}
}

// GetJobStatus returns the state of the scheduled jobs
// GET /api/v1/admin/jobs
func (h *AdminHandler) GetJobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronSvc.GetJobStatus())
}

// RunDailyGeneration triggers the daily schedule generation immediately
// POST /api/v1/admin/jobs/generate-schedules
func (h *AdminHandler) RunDailyGeneration(c *gin.Context) {
	if err := h.cronSvc.RunDailyGenerationNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run daily generation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Daily generation triggered"})
}

// RunTriggerTick runs a scheduling tick immediately
// POST /api/v1/admin/jobs/tick
func (h *AdminHandler) RunTriggerTick(c *gin.Context) {
	if err := h.cronSvc.RunTriggerTickNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run trigger tick"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trigger tick triggered"})
}

// RunExpirySweep runs an expiry sweep immediately
// POST /api/v1/admin/jobs/sweep
func (h *AdminHandler) RunExpirySweep(c *gin.Context) {
	reaped, err := h.sweeper.RunOnce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run expiry sweep"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expiry sweep completed", "reaped": reaped})
}
