package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/croftbit/taskboard/internal/constants"
	"github.com/croftbit/taskboard/internal/models"
	"github.com/croftbit/taskboard/internal/repository"
	"github.com/croftbit/taskboard/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrAttachmentNotFound  = errors.New("attachment not found")
	ErrAssigneeNotFound    = errors.New("assignee does not exist")
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title exceeds maximum length")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrDueDateRequired     = errors.New("due date is required")
	ErrInvalidStatus       = errors.New("invalid status value")
	ErrInvalidPriority     = errors.New("invalid priority value")
	ErrTagTooLong          = errors.New("tag exceeds maximum length")
	ErrCommentEmpty        = errors.New("comment text is required")
	ErrCommentTooLong      = errors.New("comment exceeds maximum length")
	ErrCompletedTaskFrozen = errors.New("a completed task cannot leave the completed status")
)

// Notifier receives committed mutation results for push fan-out. The task
// service never learns how delivery happens.
type Notifier interface {
	TaskCreated(task *models.Task)
	TaskUpdated(task *models.Task)
	TaskDeleted(taskID, assignedToID uint64)
}

// taskPreloads resolves a task to display form for responses and push
// payloads.
var taskPreloads = []string{"AssignedTo", "CreatedBy", "Comments", "Comments.Author", "Attachments", "AuditHistory"}

// TaskService owns the task mutation rules: the status/priority state
// machine, audit-trail construction, and soft-delete semantics.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	blobs    storage.Storage
	notifier Notifier
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, blobs storage.Storage, notifier Notifier) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		blobs:    blobs,
		notifier: notifier,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	AssignedToID uint64
	DueDate      time.Time
	Priority     models.TaskPriority
	Tags         []string
	CreatorID    uint64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	DueToday     bool
	SortByDue    bool
	Page         int
	PageSize     int
}

// ListTasks returns tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:        input.Status,
		Priority:      input.Priority,
		AssignedToID:  input.AssignedToID,
		SortByDueDate: input.SortByDue,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}

	if input.DueToday {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data resolved
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask validates input, creates the task with its first audit entry,
// persists it, and notifies the assignee.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if len(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if input.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if err := validateTags(input.Tags); err != nil {
		return nil, err
	}

	assignee, err := s.userRepo.FindByID(input.AssignedToID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Status:       models.TaskStatusTodo,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		CreatedByID:  input.CreatorID,
		DueDate:      input.DueDate,
		Tags:         input.Tags,
		AuditHistory: []models.AuditEntry{{
			ActorID:     input.CreatorID,
			Action:      models.AuditActionCreated,
			Description: fmt.Sprintf("Task created and assigned to %s", assignee.Name),
		}},
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.TaskCreated(created)
	return created, nil
}

// UpdateTask applies a partial patch. The persisted status is re-read inside
// the operation and a reversion away from COMPLETED rejects the whole patch
// before any field is applied. Each changed field stages its audit entries;
// a generic summary entry lists the changed field names.
func (s *TaskService) UpdateTask(actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := validatePatch(task, input); err != nil {
		return nil, err
	}

	changed := applyPatch(task, input, actor)

	if input.Tags != nil {
		task.Tags = *input.Tags
	}

	if task.Status == models.TaskStatusCompleted && task.CompletedAt == nil {
		now := time.Now()
		task.CompletedAt = &now
	}

	if len(changed) == 0 && input.Tags == nil {
		// Nothing to write; return the resolved current state.
		return s.GetTask(taskID)
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.TaskUpdated(updated)
	return updated, nil
}

// SoftDelete marks a task deleted. Attachments, comments, and the audit
// history are left in place, and no audit entry is recorded.
func (s *TaskService) SoftDelete(actor, taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.notifier.TaskDeleted(task.ID, task.AssignedToID)
	return nil
}

// AddComment appends an immutable comment and its audit entry.
func (s *TaskService) AddComment(actor, taskID uint64, text string) (*models.Task, error) {
	if text == "" {
		return nil, ErrCommentEmpty
	}
	if len(text) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	task.Comments = append(task.Comments, models.Comment{
		AuthorID: actor,
		Text:     text,
	})
	task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
		ActorID: actor,
		Action:  models.AuditActionCommentAdded,
	})

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.TaskUpdated(updated)
	return updated, nil
}

// AttachmentUpload carries an incoming file.
type AttachmentUpload struct {
	OriginalName string
	MimeType     string
	Data         []byte
}

// AddAttachment stores the blob, appends the attachment and its audit entry,
// and persists.
func (s *TaskService) AddAttachment(ctx context.Context, actor, taskID uint64, upload AttachmentUpload) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	key := storage.NewKey()
	if err := s.blobs.Write(ctx, key, upload.Data); err != nil {
		return nil, fmt.Errorf("failed to store attachment blob: %w", err)
	}

	task.Attachments = append(task.Attachments, models.Attachment{
		StorageKey:   key,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		SizeBytes:    int64(len(upload.Data)),
		UploadedByID: actor,
	})
	task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
		ActorID:     actor,
		Action:      models.AuditActionAttachmentAdded,
		Description: fmt.Sprintf("Attached %s", upload.OriginalName),
	})

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to add attachment: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.TaskUpdated(updated)
	return updated, nil
}

// GetAttachment resolves an attachment and its blob for download.
func (s *TaskService) GetAttachment(ctx context.Context, taskID, attachmentID uint64) (*models.Attachment, []byte, error) {
	attachment, err := s.taskRepo.FindAttachment(taskID, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to find attachment: %w", err)
	}

	data, err := s.blobs.Read(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attachment blob: %w", err)
	}
	return attachment, data, nil
}

// RemoveAttachment deletes the backing blob best-effort, removes the
// attachment row, and records the removal in the audit trail.
func (s *TaskService) RemoveAttachment(ctx context.Context, actor, taskID, attachmentID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	attachment, err := s.taskRepo.FindAttachment(taskID, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}

	// Blob deletion is best-effort; removal proceeds regardless.
	if err := s.blobs.Delete(ctx, attachment.StorageKey); err != nil {
		slog.Warn("failed to delete attachment blob", "key", attachment.StorageKey, "error", err)
	}

	if err := s.taskRepo.DeleteAttachment(attachment.ID); err != nil {
		return nil, fmt.Errorf("failed to remove attachment: %w", err)
	}

	task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
		ActorID:     actor,
		Action:      models.AuditActionAttachmentRemoved,
		Description: fmt.Sprintf("Removed %s", attachment.OriginalName),
	})
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to record attachment removal: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.TaskUpdated(updated)
	return updated, nil
}

// ReassignResult reports how far a bulk reassignment got. Each task commits
// independently; a failure partway through leaves earlier tasks reassigned.
type ReassignResult struct {
	ReassignedTaskIDs []uint64
	FailedTaskID      uint64
}

// ReassignForUserDeletion moves every live task assigned to fromUser onto
// toUser, committing and notifying per task. There is no cross-task
// transaction; the result reports partial progress alongside any error.
func (s *TaskService) ReassignForUserDeletion(actor, fromUserID, toUserID uint64) (*ReassignResult, error) {
	fromUser, err := s.userRepo.FindByID(fromUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	toUser, err := s.userRepo.FindByID(toUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to resolve reassignment target: %w", err)
	}

	tasks, err := s.taskRepo.ListActiveByAssignee(fromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for reassignment: %w", err)
	}

	result := &ReassignResult{}
	for i := range tasks {
		task := &tasks[i]
		task.AssignedToID = toUserID
		task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
			ActorID:     actor,
			Action:      models.AuditActionReassigned,
			Field:       "assignedTo",
			OldValue:    fromUser.Name,
			NewValue:    toUser.Name,
			Description: fmt.Sprintf("Reassigned from %s to %s", fromUser.Name, toUser.Name),
		})

		if err := s.taskRepo.Update(task); err != nil {
			result.FailedTaskID = task.ID
			return result, fmt.Errorf("failed to reassign task %d: %w", task.ID, err)
		}
		result.ReassignedTaskIDs = append(result.ReassignedTaskIDs, task.ID)

		updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
		if err != nil {
			slog.Warn("failed to reload reassigned task for notification", "task_id", task.ID, "error", err)
			continue
		}
		s.notifier.TaskUpdated(updated)
	}

	return result, nil
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if len(tag) > constants.MaxTagLength {
			return ErrTagTooLong
		}
	}
	return nil
}
