package dto

import (
	"time"

	"github.com/croftbit/taskboard/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	AuthorID  uint64    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    *UserDTO  `json:"author,omitempty"`
}

// AttachmentDTO represents an attachment in API responses
type AttachmentDTO struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedByID uint64    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// AuditEntryDTO represents an audit entry in API responses
type AuditEntryDTO struct {
	ID          uint64             `json:"id"`
	ActorID     uint64             `json:"actor_id"`
	Action      models.AuditAction `json:"action"`
	Field       string             `json:"field,omitempty"`
	OldValue    string             `json:"old_value,omitempty"`
	NewValue    string             `json:"new_value,omitempty"`
	Description string             `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TaskDTO represents a task in API responses and push payloads
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	AssignedToID uint64              `json:"assigned_to_id"`
	CreatedByID  uint64              `json:"created_by_id"`
	DueDate      time.Time           `json:"due_date"`
	Tags         []string            `json:"tags"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	AssignedTo   *UserDTO            `json:"assigned_to,omitempty"`
	CreatedBy    *UserDTO            `json:"created_by,omitempty"`
	Comments     []CommentDTO        `json:"comments,omitempty"`
	Attachments  []AttachmentDTO     `json:"attachments,omitempty"`
	AuditHistory []AuditEntryDTO     `json:"audit_history,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO, including whatever relations
// were preloaded.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		AssignedToID: task.AssignedToID,
		CreatedByID:  task.CreatedByID,
		DueDate:      task.DueDate,
		Tags:         task.Tags,
		CompletedAt:  task.CompletedAt,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if task.AssignedTo.ID != 0 {
		assignee := ToUserDTO(task.AssignedTo)
		dto.AssignedTo = &assignee
	}
	if task.CreatedBy.ID != 0 {
		creator := ToUserDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			dto.Comments[i] = CommentDTO{
				ID:        comment.ID,
				AuthorID:  comment.AuthorID,
				Text:      comment.Text,
				CreatedAt: comment.CreatedAt,
			}
			if comment.Author.ID != 0 {
				author := ToUserDTO(comment.Author)
				dto.Comments[i].Author = &author
			}
		}
	}

	if len(task.Attachments) > 0 {
		dto.Attachments = make([]AttachmentDTO, len(task.Attachments))
		for i, attachment := range task.Attachments {
			dto.Attachments[i] = AttachmentDTO{
				ID:           attachment.ID,
				OriginalName: attachment.OriginalName,
				MimeType:     attachment.MimeType,
				SizeBytes:    attachment.SizeBytes,
				UploadedByID: attachment.UploadedByID,
				UploadedAt:   attachment.UploadedAt,
			}
		}
	}

	if len(task.AuditHistory) > 0 {
		dto.AuditHistory = make([]AuditEntryDTO, len(task.AuditHistory))
		for i, entry := range task.AuditHistory {
			dto.AuditHistory[i] = AuditEntryDTO{
				ID:          entry.ID,
				ActorID:     entry.ActorID,
				Action:      entry.Action,
				Field:       entry.Field,
				OldValue:    entry.OldValue,
				NewValue:    entry.NewValue,
				Description: entry.Description,
				CreatedAt:   entry.CreatedAt,
			}
		}
	}

	return dto
}
