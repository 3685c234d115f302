package pipeline

import (
	"context"
	"strconv"

	"github.com/poiesic/sift/queue"
)

// maxReplanDepth bounds how many times container expansion may trigger
// replanning for one dataset. Hitting it means pathological nesting.
const maxReplanDepth = 100

// handleScan walks the dataset root. An unplanned backlog triggers
// planning; a scan that left nothing unplanned ends the chain. The
// gate reads the backlog rather than the scan's own delta so a
// redelivered scan task still plans blobs a crashed predecessor
// registered but never fanned out.
func (s *Service) handleScan(ctx context.Context, task *queue.Task) error {
	ds, err := s.db.GetDataset(ctx, task.Dataset)
	if err != nil {
		return err
	}
	result, err := s.registrar.ScanRoot(ctx, ds)
	if err != nil {
		return err
	}
	s.logger.Info("dataset scanned",
		"dataset", ds.Name,
		"files", result.ScannedFiles,
		"new_blobs", result.NewBlobs,
		"skipped", result.Skipped)

	unplanned, err := s.db.CountUnplanned(ctx, task.Dataset)
	if err != nil {
		return err
	}
	if unplanned == 0 {
		return nil
	}
	return s.Enqueue(ctx, queue.NewTask(TaskPlansCompute, task.Dataset, map[string]string{
		"depth": "0",
	}))
}

// handleCompute packs the unplanned backlog and fans out execution.
func (s *Service) handleCompute(ctx context.Context, task *queue.Task) error {
	depth := taskDepth(task)
	result, err := s.planner.ComputePlans(ctx, task.Dataset)
	if err != nil {
		return err
	}
	for _, planHash := range result.Plans {
		err := s.Enqueue(ctx, queue.NewTask(TaskPlanExecute, task.Dataset, map[string]string{
			"plan":  planHash,
			"depth": strconv.Itoa(depth),
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

// handleExecute runs one plan, queues its indexing, and replans when
// container expansion surfaced new blobs.
func (s *Service) handleExecute(ctx context.Context, task *queue.Task) error {
	depth := taskDepth(task)
	planHash := task.Payload["plan"]

	if _, err := s.executor.ExecutePlan(ctx, task.Dataset, planHash, depth); err != nil {
		return err
	}

	err := s.Enqueue(ctx, queue.NewTask(TaskPlanIndex, task.Dataset, map[string]string{
		"plan": planHash,
	}))
	if err != nil {
		return err
	}

	unplanned, err := s.db.CountUnplanned(ctx, task.Dataset)
	if err != nil {
		return err
	}
	if unplanned == 0 {
		return nil
	}
	if depth+1 >= maxReplanDepth {
		s.logger.Error("replanning depth exhausted, leaving backlog unplanned",
			"dataset", task.Dataset,
			"unplanned", unplanned)
		return ErrDepthExhausted
	}
	return s.Enqueue(ctx, queue.NewTask(TaskPlansCompute, task.Dataset, map[string]string{
		"depth": strconv.Itoa(depth + 1),
	}))
}

// handleIndex ships one plan's documents to search.
func (s *Service) handleIndex(ctx context.Context, task *queue.Task) error {
	return s.indexer.IndexPlan(ctx, task.Dataset, task.Payload["plan"])
}

// handleOCR recognizes one image blob.
func (s *Service) handleOCR(ctx context.Context, task *queue.Task) error {
	return s.ocr.Process(ctx, task.Dataset, task.Payload["hash"])
}

func taskDepth(task *queue.Task) int {
	depth, err := strconv.Atoi(task.Payload["depth"])
	if err != nil || depth < 0 {
		return 0
	}
	return depth
}
