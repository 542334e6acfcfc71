package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/middleware"
	"focustimer/internal/model"
	"focustimer/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, apiErr := h.settingsService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var settings model.Settings
	if !bindJSON(c, &settings) {
		return
	}

	updated, apiErr := h.settingsService.Update(c.Request.Context(), middleware.UserID(c), settings)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": updated})
}
