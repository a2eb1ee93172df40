package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/middleware"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
	"github.com/marchelxyz/GeoCheck-sub000/internal/services"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/photostore"
)

// maxPhotoBytes caps check-in photo uploads
const maxPhotoBytes = 10 << 20

// CheckInHandler serves the employee-facing check-in endpoints
type CheckInHandler struct {
	checkInSvc  *services.CheckInService
	requestRepo *database.CheckInRequestRepository
	photos      photostore.Store
	logger      *logrus.Logger
}

// NewCheckInHandler creates a new CheckInHandler
func NewCheckInHandler(
	checkInSvc *services.CheckInService,
	requestRepo *database.CheckInRequestRepository,
	photos photostore.Store,
	logger *logrus.Logger,
) *CheckInHandler {
	return &CheckInHandler{
		checkInSvc:  checkInSvc,
		requestRepo: requestRepo,
		photos:      photos,
		logger:      logger,
	}
}

// GetCurrent returns the employee's open check-in request, if any
// GET /api/v1/checkins/current
func (h *CheckInHandler) GetCurrent(c *gin.Context) {
	empCtx := middleware.MustGetEmployeeContext(c)

	request, err := h.checkInSvc.GetCurrentRequest(empCtx.EmployeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch current check-in"})
		return
	}
	if request == nil {
		c.JSON(http.StatusOK, gin.H{"request": nil})
		return
	}

	result, err := h.checkInSvc.GetResult(request.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch check-in result"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request, "result": result})
}

// SubmitLocation records a GPS fix for a check-in request
// POST /api/v1/checkins/:id/location
func (h *CheckInHandler) SubmitLocation(c *gin.Context) {
	request, ok := h.loadOwnedRequest(c)
	if !ok {
		return
	}

	var req models.SubmitLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logSubmissionDevice(c, request.ID, "location")

	result, err := h.checkInSvc.SubmitLocation(request.ID, req.Lat, req.Lon, time.Now().UTC())
	if err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// SubmitPhoto stores an uploaded photo for a check-in request
// POST /api/v1/checkins/:id/photo (multipart, field "photo")
func (h *CheckInHandler) SubmitPhoto(c *gin.Context) {
	request, ok := h.loadOwnedRequest(c)
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds 10MB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
		return
	}
	defer src.Close()

	ref, err := h.photos.Save(request.ID, src, file.Header.Get("Content-Type"))
	if err != nil {
		h.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to store photo")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
		return
	}

	h.logSubmissionDevice(c, request.ID, "photo")

	if err := h.checkInSvc.SubmitPhoto(request.ID, ref, time.Now().UTC()); err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Photo submitted", "photo_ref": ref})
}

// GetResult returns the evidence recorded for a request
// GET /api/v1/checkins/:id/result
func (h *CheckInHandler) GetResult(c *gin.Context) {
	request, ok := h.loadOwnedRequest(c)
	if !ok {
		return
	}

	result, err := h.checkInSvc.GetResult(request.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch check-in result"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request, "result": result})
}

// loadOwnedRequest parses the :id param, loads the request, and verifies it
// belongs to the authenticated employee
func (h *CheckInHandler) loadOwnedRequest(c *gin.Context) (*models.CheckInRequest, bool) {
	empCtx := middleware.MustGetEmployeeContext(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid check-in request ID"})
		return nil, false
	}

	request, err := h.requestRepo.GetByID(requestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch check-in request"})
		return nil, false
	}
	if request == nil || request.EmployeeID != empCtx.EmployeeID {
		// Not distinguishing missing from foreign requests
		c.JSON(http.StatusNotFound, gin.H{"error": "Check-in request not found"})
		return nil, false
	}

	return request, true
}

func (h *CheckInHandler) respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Check-in request not found"})
	case errors.Is(err, services.ErrExpired):
		c.JSON(http.StatusGone, gin.H{
			"error": "check_in_expired",
			"message": "The check-in deadline has passed",
		})
	case errors.Is(err, services.ErrAlreadyCompleted):
		// Duplicate submission after completion is benign
		c.JSON(http.StatusOK, gin.H{"message": "Check-in already completed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process submission"})
	}
}
