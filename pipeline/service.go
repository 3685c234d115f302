package pipeline

import (
	"context"
	"log/slog"

	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/executor"
	"github.com/poiesic/sift/extract"
	"github.com/poiesic/sift/index"
	"github.com/poiesic/sift/planner"
	"github.com/poiesic/sift/queue"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/vfs"
)

// Task names handled by the pipeline.
const (
	TaskDatasetScan  = "dataset.scan"
	TaskPlansCompute = "plans.compute"
	TaskPlanExecute  = "plan.execute"
	TaskPlanIndex    = "plan.index"
	TaskFileOCR      = "file.ocr"
)

// taskClasses routes each task name to its worker fleet.
var taskClasses = map[string]queue.Class{
	TaskDatasetScan:  queue.ClassLight,
	TaskPlansCompute: queue.ClassLight,
	TaskPlanExecute:  queue.ClassHeavy,
	TaskPlanIndex:    queue.ClassIndex,
	TaskFileOCR:      queue.ClassOCR,
}

// Components holds everything a Service coordinates.
type Components struct {
	Store     storage.Store
	Content   *content.Store
	Registrar *vfs.Registrar
	Planner   *planner.Planner
	Executor  *executor.Executor
	Indexer   *index.Indexer
	OCR       *extract.OCRProcessor
	Queue     queue.Queue
}

// Service dispatches pipeline tasks to the stage implementations and
// chains each stage to the next through the queue.
type Service struct {
	db        storage.Store
	content   *content.Store
	registrar *vfs.Registrar
	planner   *planner.Planner
	executor  *executor.Executor
	indexer   *index.Indexer
	ocr       *extract.OCRProcessor
	queue     queue.Queue
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a Service from its components.
func NewService(c Components, opts ...Option) (*Service, error) {
	if c.Store == nil {
		return nil, ErrStorageRequired
	}
	if c.Queue == nil {
		return nil, ErrQueueRequired
	}

	s := &Service{
		db:        c.Store,
		content:   c.Content,
		registrar: c.Registrar,
		planner:   c.Planner,
		executor:  c.Executor,
		indexer:   c.Indexer,
		ocr:       c.OCR,
		queue:     c.Queue,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Enqueue publishes a pipeline task on its class.
func (s *Service) Enqueue(ctx context.Context, task *queue.Task) error {
	class, ok := taskClasses[task.Name]
	if !ok {
		return ErrUnknownTask
	}
	return s.queue.Enqueue(ctx, class, task)
}

// StartScan enqueues the initial scan for a dataset.
func (s *Service) StartScan(ctx context.Context, datasetID string) error {
	return s.Enqueue(ctx, queue.NewTask(TaskDatasetScan, datasetID, nil))
}

// Worker builds a queue worker for one class, dispatching to this
// service's handlers.
func (s *Service) Worker(class queue.Class, opts ...queue.WorkerOption) (*queue.Worker, error) {
	opts = append([]queue.WorkerOption{
		queue.WithErrorLog(s.db),
		queue.WithWorkerLogger(s.logger),
	}, opts...)
	return queue.NewWorker(s.queue, class, s.Handle, opts...)
}

// Handle dispatches one task by name.
func (s *Service) Handle(ctx context.Context, task *queue.Task) error {
	switch task.Name {
	case TaskDatasetScan:
		return s.handleScan(ctx, task)
	case TaskPlansCompute:
		return s.handleCompute(ctx, task)
	case TaskPlanExecute:
		return s.handleExecute(ctx, task)
	case TaskPlanIndex:
		return s.handleIndex(ctx, task)
	case TaskFileOCR:
		return s.handleOCR(ctx, task)
	default:
		return ErrUnknownTask
	}
}
