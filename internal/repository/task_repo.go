package repository

import (
	"context"
	"time"

	"github.com/timmy/gamedata/internal/domain"
	"gorm.io/gorm"
)

// TaskRepository persists background import tasks.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *TaskRepository: repository instance bound to db.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Get retrieves a task by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: task UUID.
//
// Returns:
//   - *domain.Task: task if found.
//   - error: ErrNotFound if no task has id.
func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// MarkProcessing moves a pending task to processing.
// Returns ErrNotFound if the task is gone or no longer pending.
func (r *TaskRepository) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND state = ?", id, domain.TaskStatePending).
		Updates(map[string]interface{}{
			"state":      domain.TaskStateProcessing,
			"started_at": startedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Finish writes a terminal state, result, error and completion time in one
// statement. Tasks already in a terminal state are left untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: task UUID.
//   - state: terminal state to record.
//   - result: result summary; may be nil.
//   - errMsg: failure reason; may be nil.
//   - completedAt: completion timestamp.
//
// Returns:
//   - bool: true if the task was updated.
//   - error: non-nil if the update fails.
func (r *TaskRepository) Finish(ctx context.Context, id string, state domain.TaskState, result *domain.TaskResult, errMsg *string, completedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND state NOT IN ?", id, domain.TerminalTaskStates).
		Select("state", "result", "error", "completed_at").
		Updates(&domain.Task{
			State:       state,
			Result:      result,
			Error:       errMsg,
			CompletedAt: &completedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByState returns the number of tasks in each state.
func (r *TaskRepository) CountByState(ctx context.Context) (map[domain.TaskState]int64, error) {
	var rows []struct {
		State domain.TaskState
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.TaskState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
