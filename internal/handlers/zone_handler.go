package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// ZoneHandler serves the administrator endpoints for geofence zones
type ZoneHandler struct {
	zoneRepo     *database.ZoneRepository
	employeeRepo *database.EmployeeRepository
	logger       *logrus.Logger
}

// NewZoneHandler creates a new ZoneHandler
func NewZoneHandler(
	zoneRepo *database.ZoneRepository,
	employeeRepo *database.EmployeeRepository,
	logger *logrus.Logger,
) *ZoneHandler {
	return &ZoneHandler{
		zoneRepo:     zoneRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

// Create creates a zone. An individual zone is assigned to its employee in
// the same call.
// POST /api/v1/admin/zones
func (h *ZoneHandler) Create(c *gin.Context) {
	var req models.CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var employeeID uuid.UUID
	if req.EmployeeID != nil {
		parsed, err := uuid.Parse(*req.EmployeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee_id"})
			return
		}
		employee, err := h.employeeRepo.GetByID(parsed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch employee"})
			return
		}
		if employee == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		employeeID = parsed
	}

	zone := &models.Zone{
		Name:         req.Name,
		CenterLat:    req.CenterLat,
		CenterLon:    req.CenterLon,
		RadiusMeters: req.RadiusMeters,
		IsShared:     req.IsShared,
	}

	if err := h.zoneRepo.Create(zone); err != nil {
		h.logger.WithError(err).Error("Failed to create zone")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create zone"})
		return
	}

	if employeeID != uuid.Nil {
		if err := h.zoneRepo.Assign(zone.ID, employeeID); err != nil {
			h.logger.WithError(err).WithField("zone_id", zone.ID).Error("Failed to assign zone")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Zone created but assignment failed"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"zone": zone})
}

// List returns all zones
// GET /api/v1/admin/zones
func (h *ZoneHandler) List(c *gin.Context) {
	zones, err := h.zoneRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch zones"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// Delete removes a zone and its assignments
// DELETE /api/v1/admin/zones/:id
func (h *ZoneHandler) Delete(c *gin.Context) {
	zoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone ID"})
		return
	}

	if err := h.zoneRepo.Delete(zoneID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete zone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Zone deleted"})
}

// AssignRequest represents a zone assignment request
type AssignRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
}

// Assign links an employee to a zone
// POST /api/v1/admin/zones/:id/assignments
func (h *ZoneHandler) Assign(c *gin.Context) {
	zoneID, employeeID, ok := h.parseAssignment(c)
	if !ok {
		return
	}

	zone, err := h.zoneRepo.GetByID(zoneID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch zone"})
		return
	}
	if zone == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Zone not found"})
		return
	}

	if err := h.zoneRepo.Assign(zoneID, employeeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign zone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Zone assigned"})
}

// Unassign removes an employee-zone link
// DELETE /api/v1/admin/zones/:id/assignments
func (h *ZoneHandler) Unassign(c *gin.Context) {
	zoneID, employeeID, ok := h.parseAssignment(c)
	if !ok {
		return
	}

	if err := h.zoneRepo.Unassign(zoneID, employeeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign zone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Zone unassigned"})
}

func (h *ZoneHandler) parseAssignment(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	zoneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone ID"})
		return uuid.Nil, uuid.Nil, false
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id is required"})
		return uuid.Nil, uuid.Nil, false
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee_id"})
		return uuid.Nil, uuid.Nil, false
	}

	return zoneID, employeeID, true
}
