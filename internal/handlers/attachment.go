package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/croftbit/taskboard/internal/dto"
	apierrors "github.com/croftbit/taskboard/internal/errors"
	"github.com/croftbit/taskboard/internal/middleware"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/gin-gonic/gin"
)

// maxAttachmentBytes caps uploads at 25 MiB.
const maxAttachmentBytes = 25 << 20

// AttachmentHandler exposes attachment upload/download/removal.
type AttachmentHandler struct {
	taskService *services.TaskService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(taskService *services.TaskService) *AttachmentHandler {
	return &AttachmentHandler{
		taskService: taskService,
	}
}

// Upload stores a multipart file as a task attachment.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file is required")
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		apierrors.BadRequest(c, "File too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.InternalError(c, "Failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes))
	if err != nil {
		apierrors.InternalError(c, "Failed to read upload")
		return
	}

	updated, err := h.taskService.AddAttachment(c.Request.Context(), userID, task.ID, services.AttachmentUpload{
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*updated))
}

// Download streams an attachment's blob back to the caller.
func (h *AttachmentHandler) Download(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	attachmentID, err := strconv.ParseUint(c.Param("attachment_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid attachment ID")
		return
	}

	attachment, data, err := h.taskService.GetAttachment(c.Request.Context(), task.ID, attachmentID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+attachment.OriginalName+`"`)
	c.Data(http.StatusOK, attachment.MimeType, data)
}

// Remove deletes an attachment; the backing blob delete is best-effort.
func (h *AttachmentHandler) Remove(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	attachmentID, err := strconv.ParseUint(c.Param("attachment_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid attachment ID")
		return
	}

	updated, err := h.taskService.RemoveAttachment(c.Request.Context(), userID, task.ID, attachmentID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}
