package models

import "time"

// Attachment references a blob already written to the blob store under
// StorageKey. The blob shares the attachment's lifetime; deletion of the
// blob is best-effort.
type Attachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	StorageKey   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	MimeType     string    `gorm:"type:varchar(127)" json:"mime_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	UploadedByID uint64    `gorm:"not null" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
