package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/metrics"
	"github.com/timmy/gamedata/internal/repository"
)

// Importer runs one import for a source URL.
type Importer interface {
	ImportFromURL(ctx context.Context, rawURL string) (*domain.ImportOutcome, error)
}

// TaskConfig holds configuration for the task worker pool.
type TaskConfig struct {
	Workers   int
	QueueSize int
}

type taskJob struct {
	taskID    string
	sourceURL string
}

// TaskService runs imports in the background and tracks their state.
// It is the only writer of task state.
type TaskService struct {
	tasks    *repository.TaskRepository
	importer Importer
	workers  int

	queue    chan taskJob
	stopping chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	started  bool
	closed   bool
	wg       sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

// NewTaskService creates a new task service. Call Start before Submit.
// Parameters:
//   - tasks: task persistence.
//   - importer: runs the import for a task.
//   - cfg: worker count and queue depth.
//
// Returns:
//   - *TaskService: service with an idle worker pool.
func NewTaskService(tasks *repository.TaskRepository, importer Importer, cfg *TaskConfig) *TaskService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}
	return &TaskService{
		tasks:    tasks,
		importer: importer,
		workers:  workers,
		queue:    make(chan taskJob, queueSize),
		stopping: make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the workers. Jobs run detached from ctx cancellation but
// inherit its logger fields.
func (s *TaskService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx = logger.SetComponent(ctx, "task-worker")
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	logger.CtxInfo(ctx, "Task workers started: workers=%d, queue_size=%d", s.workers, cap(s.queue))
}

// Shutdown stops accepting tasks and waits for queued and in-flight jobs.
// If ctx expires first, running imports are cancelled and ctx.Err is
// returned without waiting for the workers to exit.
func (s *TaskService) Shutdown(ctx context.Context) error {
	// Closed outside the lock so senders blocked on a full queue give up
	// their read lock.
	s.stopOnce.Do(func() { close(s.stopping) })

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if s.cancel != nil {
			s.cancel()
		}
		logger.CtxInfo(ctx, "Task workers stopped")
		return nil
	case <-ctx.Done():
		if s.cancel != nil {
			s.cancel()
		}
		logger.CtxWarn(ctx, "Task workers still running at shutdown deadline, imports cancelled")
		return ctx.Err()
	}
}

// Submit records a pending task for rawURL and queues it.
// Parameters:
//   - ctx: request context; only bounds the enqueue, not the import.
//   - rawURL: CSV source location.
//
// Returns:
//   - *domain.Task: the pending task.
//   - error: non-nil if the task could not be stored or queued. A task that
//     was stored but not queued is marked failed.
func (s *TaskService) Submit(ctx context.Context, rawURL string) (*domain.Task, error) {
	task := &domain.Task{
		ID:        uuid.NewString(),
		State:     domain.TaskStatePending,
		SourceURL: rawURL,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ctx = logger.SetTaskID(ctx, task.ID)
	if err := s.enqueue(ctx, taskJob{taskID: task.ID, sourceURL: rawURL}); err != nil {
		s.abandon(ctx, task.ID, err)
		return nil, err
	}

	logger.CtxInfo(ctx, "Task queued: source_url=%s", rawURL)
	return task, nil
}

func (s *TaskService) enqueue(ctx context.Context, job taskJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || !s.started {
		return ErrShuttingDown
	}
	select {
	case <-s.stopping:
		return ErrShuttingDown
	default:
	}
	select {
	case s.queue <- job:
		metrics.GaugeTaskQueueDepth.Inc()
		return nil
	case <-s.stopping:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// abandon marks a task that never reached a worker as failed.
func (s *TaskService) abandon(ctx context.Context, taskID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	msg := "task could not be queued: " + cause.Error()
	s.finish(ctx, taskID, domain.TaskStateFailed, nil, &msg)
}

// GetStatus returns the current state of a task.
// Returns ErrTaskNotFound for unknown IDs.
func (s *TaskService) GetStatus(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) worker(id int) {
	defer s.wg.Done()
	for job := range s.queue {
		metrics.GaugeTaskQueueDepth.Dec()
		s.run(job)
	}
}

// run executes one job with its own context, independent of the submitter.
func (s *TaskService) run(job taskJob) {
	ctx := logger.SetTaskID(s.baseCtx, job.taskID)

	if err := s.tasks.MarkProcessing(ctx, job.taskID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.CtxDebug(ctx, "Task no longer pending, skipping")
			return
		}
		logger.CtxError(ctx, "Failed to mark task processing: %v", err)
		msg := err.Error()
		s.finish(ctx, job.taskID, domain.TaskStateFailed, nil, &msg)
		return
	}

	outcome, err := s.importer.ImportFromURL(ctx, job.sourceURL)
	if err != nil {
		logger.CtxWarn(ctx, "Task failed: %v", err)
		msg := err.Error()
		s.finish(ctx, job.taskID, domain.TaskStateFailed, nil, &msg)
		return
	}

	state := outcome.Status()
	result := &domain.TaskResult{Message: domain.OutcomeMessage(state), Outcome: outcome}
	s.finish(ctx, job.taskID, state, result, nil)
}

func (s *TaskService) finish(ctx context.Context, taskID string, state domain.TaskState, result *domain.TaskResult, errMsg *string) {
	// Record completion even if the import was cancelled.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	applied, err := s.tasks.Finish(writeCtx, taskID, state, result, errMsg, s.now())
	if err != nil {
		logger.CtxError(ctx, "Failed to record task result: %v", err)
		return
	}
	if !applied {
		logger.CtxWarn(ctx, "Task already finished, result dropped: state=%s", state)
		return
	}
	metrics.CounterTasks.WithLabelValues(string(state)).Inc()
	logger.CtxInfo(ctx, "Task finished: state=%s", state)
}
