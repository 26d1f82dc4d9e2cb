package repository

import (
	"github.com/croftbit/taskboard/internal/database"
	"github.com/croftbit/taskboard/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("tasks.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("AssignedTo").Preload("CreatedBy").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists a modified task. FullSaveAssociations writes staged owned
// rows (comments, attachments, audit entries) in the same transaction.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// ListActiveByAssignee lists non-deleted tasks assigned to a user
func (r *GormTaskRepository) ListActiveByAssignee(userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Where("assigned_to_id = ?", userID).
		Order("tasks.id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountActiveByAssignee counts non-deleted tasks assigned to a user
func (r *GormTaskRepository) CountActiveByAssignee(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("assigned_to_id = ?", userID).
		Count(&count).Error
	return count, err
}

// DeleteAttachment removes one attachment row
func (r *GormTaskRepository) DeleteAttachment(attachmentID uint64) error {
	return r.db.Delete(&models.Attachment{}, attachmentID).Error
}

// FindAttachment finds an attachment belonging to a task
func (r *GormTaskRepository) FindAttachment(taskID, attachmentID uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.Where("task_id = ?", taskID).
		First(&attachment, attachmentID).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}
