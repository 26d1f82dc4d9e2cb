package services

import (
	"strings"
	"time"

	"github.com/croftbit/taskboard/internal/constants"
	"github.com/croftbit/taskboard/internal/models"
)

// UpdateTaskInput is a partial patch; nil fields are left untouched. Tags
// are replaced wholesale and deliberately produce no audit entry.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	Tags        *[]string
}

// patchField describes one patchable scalar field: how to read both sides
// for comparison, how to apply the new value, and whether a change earns a
// dedicated audit entry in addition to the generic summary.
type patchField struct {
	name     string
	present  func(in UpdateTaskInput) bool
	current  func(t *models.Task) string
	incoming func(in UpdateTaskInput) string
	set      func(t *models.Task, in UpdateTaskInput)
	action   models.AuditAction // "" for summary-only fields
}

// patchFields is iterated in this fixed order so the summary entry's field
// listing is deterministic.
var patchFields = []patchField{
	{
		name:     "title",
		present:  func(in UpdateTaskInput) bool { return in.Title != nil },
		current:  func(t *models.Task) string { return t.Title },
		incoming: func(in UpdateTaskInput) string { return *in.Title },
		set:      func(t *models.Task, in UpdateTaskInput) { t.Title = *in.Title },
	},
	{
		name:     "description",
		present:  func(in UpdateTaskInput) bool { return in.Description != nil },
		current:  func(t *models.Task) string { return t.Description },
		incoming: func(in UpdateTaskInput) string { return *in.Description },
		set:      func(t *models.Task, in UpdateTaskInput) { t.Description = *in.Description },
	},
	{
		name:     "dueDate",
		present:  func(in UpdateTaskInput) bool { return in.DueDate != nil },
		current:  func(t *models.Task) string { return t.DueDate.UTC().Format(time.RFC3339) },
		incoming: func(in UpdateTaskInput) string { return in.DueDate.UTC().Format(time.RFC3339) },
		set:      func(t *models.Task, in UpdateTaskInput) { t.DueDate = *in.DueDate },
	},
	{
		name:     "priority",
		present:  func(in UpdateTaskInput) bool { return in.Priority != nil },
		current:  func(t *models.Task) string { return string(t.Priority) },
		incoming: func(in UpdateTaskInput) string { return string(*in.Priority) },
		set:      func(t *models.Task, in UpdateTaskInput) { t.Priority = *in.Priority },
		action:   models.AuditActionPriorityChanged,
	},
	{
		name:     "status",
		present:  func(in UpdateTaskInput) bool { return in.Status != nil },
		current:  func(t *models.Task) string { return string(t.Status) },
		incoming: func(in UpdateTaskInput) string { return string(*in.Status) },
		set:      func(t *models.Task, in UpdateTaskInput) { t.Status = *in.Status },
		action:   models.AuditActionStatusChanged,
	},
}

// validatePatch rejects the whole patch before any field is applied.
// COMPLETED is terminal: a patch that moves status anywhere else fails even
// if other fields would be valid on their own.
func validatePatch(task *models.Task, in UpdateTaskInput) error {
	if in.Status != nil {
		if !in.Status.Valid() {
			return ErrInvalidStatus
		}
		if task.Status == models.TaskStatusCompleted && *in.Status != models.TaskStatusCompleted {
			return ErrCompletedTaskFrozen
		}
	}
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Description != nil && len(*in.Description) > constants.MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		return ErrDueDateRequired
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return ErrInvalidPriority
	}
	if in.Tags != nil {
		if err := validateTags(*in.Tags); err != nil {
			return err
		}
	}
	return nil
}

// applyPatch walks the field table, applies changed values, stages the
// dedicated audit entries, and finishes with one generic summary entry
// listing the changed field names. Returns the changed field names.
func applyPatch(task *models.Task, in UpdateTaskInput, actor uint64) []string {
	var changed []string

	for _, f := range patchFields {
		if !f.present(in) {
			continue
		}
		oldValue, newValue := f.current(task), f.incoming(in)
		if oldValue == newValue {
			continue
		}
		f.set(task, in)
		changed = append(changed, f.name)

		if f.action != "" {
			task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
				ActorID:  actor,
				Action:   f.action,
				Field:    f.name,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}

	if len(changed) > 0 {
		task.AuditHistory = append(task.AuditHistory, models.AuditEntry{
			ActorID:     actor,
			Action:      models.AuditActionUpdated,
			Description: "Updated fields: " + strings.Join(changed, ", "),
		})
	}

	return changed
}
