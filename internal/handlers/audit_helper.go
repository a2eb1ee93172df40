package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/utils"
)

// logSubmissionDevice records the submitting client's device details for
// later dispute review. Logging only; failures never affect the request.
func (h *CheckInHandler) logSubmissionDevice(c *gin.Context, requestID uuid.UUID, kind string) {
	device := utils.ParseUserAgent(c.Request.UserAgent())

	h.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"submission":  kind,
		"ip":          c.ClientIP(),
		"device_type": device.DeviceType,
		"os":          device.OS,
		"platform":    device.Platform,
	}).Info("Check-in evidence submitted")
}
