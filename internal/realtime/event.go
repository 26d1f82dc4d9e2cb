package realtime

import "github.com/croftbit/taskboard/internal/dto"

// Message types carried in the push envelope.
const (
	MessageConnected   = "CONNECTED"
	MessagePing        = "PING"
	MessagePong        = "PONG"
	MessageTaskCreated = "TASK_CREATED"
	MessageTaskUpdated = "TASK_UPDATED"
	MessageTaskDeleted = "TASK_DELETED"
)

// Event is the server-to-client push envelope. TASK_CREATED and TASK_UPDATED
// carry the fully resolved task; TASK_DELETED carries only the task id.
type Event struct {
	Type   string       `json:"type"`
	Task   *dto.TaskDTO `json:"task,omitempty"`
	TaskID uint64       `json:"task_id,omitempty"`
}
