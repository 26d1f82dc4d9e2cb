package handlers

import (
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/croftbit/taskboard/internal/errors"
	"github.com/croftbit/taskboard/internal/middleware"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler exposes user deletion with its reassignment contract.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// DeleteUser removes a user. When the user still owns live tasks the
// request must carry reassign_to; without it the response is a 409 with the
// task count so the caller can confirm and retry.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var reassignTo *uint64
	if v := c.Query("reassign_to"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid reassign_to")
			return
		}
		reassignTo = &id
	}

	if err := h.userService.DeleteUser(actorID, userID, reassignTo); err != nil {
		var hasTasks *services.UserHasTasksError
		var partial *services.PartialReassignError
		switch {
		case errors.As(err, &hasTasks):
			apierrors.ConflictWithDetails(c,
				"User has assigned tasks; retry with reassign_to",
				gin.H{"task_count": hasTasks.TaskCount})
		case errors.As(err, &partial):
			apierrors.RespondWithError(c, http.StatusConflict,
				apierrors.NewAPIErrorWithDetails(apierrors.ErrCodeOperationFailed,
					"Reassignment stopped partway; user was not deleted",
					gin.H{
						"reassigned_task_ids": partial.Result.ReassignedTaskIDs,
						"failed_task_id":      partial.Result.FailedTaskID,
					}))
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, "User not found")
		case errors.Is(err, services.ErrAssigneeNotFound):
			apierrors.BadRequest(c, "Reassignment target does not exist")
		case errors.Is(err, services.ErrReassignSelf):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
