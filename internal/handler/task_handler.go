package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/middleware"
	"focustimer/internal/model"
	"focustimer/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type createTaskRequest struct {
	Label string `json:"label"`
}

type taskIDsRequest struct {
	IDs []string `json:"ids"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, apiErr := h.taskService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, apiErr := h.taskService.Create(c.Request.Context(), middleware.UserID(c), req.Label)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var patch model.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}

	task, apiErr := h.taskService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if apiErr := h.taskService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) BulkDelete(c *gin.Context) {
	var req taskIDsRequest
	if !bindJSON(c, &req) {
		return
	}

	deleted, apiErr := h.taskService.BulkDelete(c.Request.Context(), middleware.UserID(c), req.IDs)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *TaskHandler) Reorder(c *gin.Context) {
	var req taskIDsRequest
	if !bindJSON(c, &req) {
		return
	}

	tasks, apiErr := h.taskService.Reorder(c.Request.Context(), middleware.UserID(c), req.IDs)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
