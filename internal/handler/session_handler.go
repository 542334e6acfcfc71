package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/middleware"
	"focustimer/internal/model"
	"focustimer/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var record model.SessionRecord
	if !bindJSON(c, &record) {
		return
	}

	session, apiErr := h.sessionService.Create(c.Request.Context(), middleware.UserID(c), record)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, apiErr := h.sessionService.List(c.Request.Context(), middleware.UserID(c), c.Query("period"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Stats(c *gin.Context) {
	stats, apiErr := h.sessionService.Stats(c.Request.Context(), middleware.UserID(c), c.Query("period"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
