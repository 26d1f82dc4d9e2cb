package repository

import (
	"time"

	"github.com/croftbit/taskboard/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with any staged owned rows
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists a modified task and its staged owned rows
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// ListActiveByAssignee lists non-deleted tasks assigned to a user
	ListActiveByAssignee(userID uint64) ([]models.Task, error)

	// CountActiveByAssignee counts non-deleted tasks assigned to a user
	CountActiveByAssignee(userID uint64) (int64, error)

	// DeleteAttachment removes one attachment row
	DeleteAttachment(attachmentID uint64) error

	// FindAttachment finds an attachment belonging to a task
	FindAttachment(taskID, attachmentID uint64) (*models.Attachment, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	AssignedToID   *uint64
	CreatedByID    *uint64
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Delete soft deletes a user
	Delete(id uint64) error
}
