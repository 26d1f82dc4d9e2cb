package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityLow    TaskPriority = "LOW"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

type Task struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"type:varchar(200);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Priority     TaskPriority   `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	AssignedToID uint64         `gorm:"not null;index" json:"assigned_to_id"`
	CreatedByID  uint64         `gorm:"not null;index" json:"created_by_id"`
	DueDate      time.Time      `gorm:"not null" json:"due_date"`
	Tags         []string       `gorm:"serializer:json" json:"tags"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTo   User         `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy    User         `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Comments     []Comment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	AuditHistory []AuditEntry `gorm:"foreignKey:TaskID" json:"audit_history,omitempty"`
}
