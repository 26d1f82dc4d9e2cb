package models

import "time"

type AuditAction string

const (
	AuditActionCreated           AuditAction = "created"
	AuditActionUpdated           AuditAction = "updated"
	AuditActionStatusChanged     AuditAction = "status_changed"
	AuditActionPriorityChanged   AuditAction = "priority_changed"
	AuditActionAssigned          AuditAction = "assigned"
	AuditActionReassigned        AuditAction = "reassigned"
	AuditActionCommentAdded      AuditAction = "comment_added"
	AuditActionAttachmentAdded   AuditAction = "attachment_added"
	AuditActionAttachmentRemoved AuditAction = "attachment_removed"
)

// AuditEntry is an append-only record of one state change applied to a task.
// Entries are never edited or removed; ordering by append time is the
// canonical history.
type AuditEntry struct {
	ID          uint64      `gorm:"primarykey" json:"id"`
	TaskID      uint64      `gorm:"not null;index" json:"task_id"`
	ActorID     uint64      `gorm:"not null" json:"actor_id"`
	Action      AuditAction `gorm:"type:varchar(30);not null" json:"action"`
	Field       string      `gorm:"type:varchar(50)" json:"field,omitempty"`
	OldValue    string      `gorm:"type:text" json:"old_value,omitempty"`
	NewValue    string      `gorm:"type:text" json:"new_value,omitempty"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
