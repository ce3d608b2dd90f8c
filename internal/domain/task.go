package domain

import "time"

// TaskState represents the lifecycle state of a background import task.
type TaskState string

const (
	TaskStatePending            TaskState = "pending"
	TaskStateProcessing         TaskState = "processing"
	TaskStateCompleted          TaskState = "completed"
	TaskStateFailed             TaskState = "failed"
	TaskStatePartiallyCompleted TaskState = "partially_completed"
)

// TerminalTaskStates lists the states a task never leaves.
var TerminalTaskStates = []TaskState{
	TaskStateCompleted,
	TaskStateFailed,
	TaskStatePartiallyCompleted,
}

// IsTerminal reports whether the state is final.
func (s TaskState) IsTerminal() bool {
	for _, t := range TerminalTaskStates {
		if s == t {
			return true
		}
	}
	return false
}

// TaskResult is the persisted summary of a finished import.
type TaskResult struct {
	Message string         `json:"message"`
	Outcome *ImportOutcome `json:"outcome,omitempty"`
}

// Task tracks one asynchronous CSV import.
type Task struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	State       TaskState   `gorm:"type:varchar(32);not null;default:pending;index" json:"status"`
	SourceURL   string      `gorm:"type:text;not null" json:"source_url"`
	Result      *TaskResult `gorm:"serializer:json;type:text" json:"result,omitempty"`
	Error       *string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string {
	return "import_tasks"
}

// Message returns the result message, or "" while the task is running.
func (t *Task) Message() string {
	if t.Result == nil {
		return ""
	}
	return t.Result.Message
}
