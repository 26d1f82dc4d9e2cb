package notify

import (
	"github.com/croftbit/taskboard/internal/dto"
	"github.com/croftbit/taskboard/internal/models"
	"github.com/croftbit/taskboard/internal/realtime"
)

// Dispatcher turns committed task mutations into typed push events and hands
// them to the connection registry. It is stateless and fire-and-forget:
// delivery failures never reach the originating mutation.
type Dispatcher struct {
	hub *realtime.Hub
}

// NewDispatcher creates a Dispatcher backed by the given hub.
func NewDispatcher(hub *realtime.Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// TaskCreated notifies the assignee of a new task.
func (d *Dispatcher) TaskCreated(task *models.Task) {
	taskDTO := dto.ToTaskDTO(*task)
	d.hub.SendToUser(task.AssignedToID, realtime.Event{
		Type: realtime.MessageTaskCreated,
		Task: &taskDTO,
	})
}

// TaskUpdated notifies the (possibly new) assignee of a changed task.
func (d *Dispatcher) TaskUpdated(task *models.Task) {
	taskDTO := dto.ToTaskDTO(*task)
	d.hub.SendToUser(task.AssignedToID, realtime.Event{
		Type: realtime.MessageTaskUpdated,
		Task: &taskDTO,
	})
}

// TaskDeleted notifies the current assignee that a task was removed. Only
// the id is pushed; the entity is gone from the recipient's view.
func (d *Dispatcher) TaskDeleted(taskID, assignedToID uint64) {
	d.hub.SendToUser(assignedToID, realtime.Event{
		Type:   realtime.MessageTaskDeleted,
		TaskID: taskID,
	})
}
