package handler

import (
	"net/http"

	"assettracker/internal/dto"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfigurationHandler struct{ svc service.ConfigurationService }

func NewConfigurationHandler(svc service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{svc: svc}
}

// GetNotification godoc
// @Summary      Low-stock alert recipients
// @Description  directoryGroup is stored for a directory integration; this
// @Description  server has no directory client, so alerts go only to
// @Description  additionalRecipients.
// @Tags         configuration
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.NotificationConfigResponse
// @Router       /v1/configuration/notifications [get]
func (h *ConfigurationHandler) GetNotification(c *gin.Context) {
	resp, err := h.svc.GetNotificationConfig(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateNotification godoc
// @Summary      Set low-stock alert recipients
// @Description  directoryGroup is saved but not resolved to addresses by this
// @Description  server (no directory client is configured). Only
// @Description  additionalRecipients, comma separated, receive alerts.
// @Tags         configuration
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UpdateNotificationConfigRequest true "Directory group and extra addresses"
// @Success      200  {object} dto.NotificationConfigResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/configuration/notifications [put]
func (h *ConfigurationHandler) UpdateNotification(c *gin.Context) {
	var req dto.UpdateNotificationConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateNotificationConfig(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
