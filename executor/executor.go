package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/extract"
	"github.com/poiesic/sift/storage"
)

const (
	// plansInFlight bounds concurrent plan executions per node.
	plansInFlight = 16

	// itemsInFlight bounds concurrent item extractions within a plan.
	itemsInFlight = 32

	// pendingPageSize is the pending-plan listing page.
	pendingPageSize = 1000
)

// Result summarizes one execution pass.
type Result struct {
	Executed int
	Skipped  int
}

// Executor runs pending plans: it stages each member's bytes, routes
// them through extraction, and marks the plan finished once every
// member has been attempted.
type Executor struct {
	db       storage.Store
	content  *content.Store
	router   *extract.Router
	planPool *ants.Pool
	itemPool *ants.Pool
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPlanConcurrency sets how many plans execute at once.
// Default is 16.
func WithPlanConcurrency(n int) Option {
	return func(e *Executor) error {
		if n < 1 {
			n = 1
		}
		if e.planPool != nil {
			e.planPool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		e.planPool = pool
		return nil
	}
}

// NewExecutor creates an Executor.
func NewExecutor(db storage.Store, contentStore *content.Store, router *extract.Router, opts ...Option) (*Executor, error) {
	if db == nil {
		return nil, ErrStorageRequired
	}
	if contentStore == nil {
		return nil, ErrContentStoreRequired
	}
	if router == nil {
		return nil, ErrRouterRequired
	}

	planPool, err := ants.NewPool(plansInFlight)
	if err != nil {
		return nil, err
	}
	itemPool, err := ants.NewPool(itemsInFlight)
	if err != nil {
		planPool.Release()
		return nil, err
	}

	e := &Executor{
		db:       db,
		content:  contentStore,
		router:   router,
		planPool: planPool,
		itemPool: itemPool,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			planPool.Release()
			itemPool.Release()
			return nil, err
		}
	}
	return e, nil
}

// Close releases the worker pools.
func (e *Executor) Close() {
	e.planPool.Release()
	e.itemPool.Release()
}

// ExecutePending walks every pending plan for the dataset in pages and
// executes them with bounded concurrency. Returns once all pending
// plans at call time have been attempted.
func (e *Executor) ExecutePending(ctx context.Context, dataset string, depth int) (*Result, error) {
	result := &Result{}
	startAfter := ""
	for {
		page, err := e.db.PendingPlans(ctx, dataset, startAfter, pendingPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		for _, planHash := range page {
			wg.Add(1)
			submitErr := e.planPool.Submit(func() {
				defer wg.Done()
				executed, err := e.ExecutePlan(ctx, dataset, planHash, depth)
				mu.Lock()
				defer mu.Unlock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if executed {
					result.Executed++
				} else {
					result.Skipped++
				}
			})
			if submitErr != nil {
				wg.Done()
				return nil, submitErr
			}
		}
		wg.Wait()
		if firstErr != nil {
			return nil, firstErr
		}

		startAfter = page[len(page)-1]
		if len(page) < pendingPageSize {
			break
		}
	}
	return result, nil
}

// ExecutePlan runs one plan end to end. Extraction failures are
// recorded per item and never block the plan's completion barrier.
// Staging failures abort the attempt before the barrier: the plan
// stays pending and a later attempt retries every member, so a
// transient object-store outage never loses content. Returns false
// when the plan was already finished.
func (e *Executor) ExecutePlan(ctx context.Context, dataset, planHash string, depth int) (bool, error) {
	finished, err := e.db.Finished(ctx, dataset, planHash)
	if err != nil {
		return false, err
	}
	if finished {
		return false, nil
	}

	plan, err := e.db.GetPlan(ctx, dataset, planHash)
	if err != nil {
		return false, err
	}
	refs, err := e.db.GetBlobs(ctx, dataset, plan.Items...)
	if err != nil {
		return false, err
	}

	stageDir, err := os.MkdirTemp("", "sift-stage-*")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(stageDir)

	// The download deadline covers the plan's total byte size; parse
	// deadlines scale per item.
	var planBytes int64
	for _, ref := range refs {
		planBytes += ref.Size
	}
	stageTimeout := stageBudget(planBytes)

	start := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for _, ref := range refs {
		wg.Add(1)
		submitErr := e.itemPool.Submit(func() {
			defer wg.Done()
			if err := e.executeItem(ctx, ref, stageDir, stageTimeout, depth); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return false, firstErr
	}

	// Completion barrier: every member has been attempted, failures
	// included. The plan never runs again.
	if err := e.db.MarkFinished(ctx, dataset, planHash); err != nil {
		return false, err
	}
	e.logger.Info("plan finished",
		"dataset", dataset,
		"plan", planHash,
		"items", len(plan.Items),
		"elapsed", time.Since(start))
	return true, nil
}

// executeItem stages and extracts one member. Staging errors propagate
// so the plan's completion barrier is never reached on a failed fetch;
// extraction failures are logged by the router and absorbed.
func (e *Executor) executeItem(ctx context.Context, ref *core.BlobRef, stageDir string, stageTimeout time.Duration, depth int) error {
	staged, err := e.stage(ctx, ref, stageDir, stageTimeout)
	if err != nil {
		return fmt.Errorf("staging %s: %w", ref.Hash, err)
	}

	parseCtx, cancel := context.WithTimeout(ctx, parseBudget(ref.Size))
	defer cancel()
	return e.router.Process(parseCtx, ref, staged, depth)
}

// stage copies the blob's bytes to local disk under a deadline and
// verifies the byte count against the blob row. Every extractor reads
// from the staged copy, so the object store is hit once per item.
func (e *Executor) stage(ctx context.Context, ref *core.BlobRef, stageDir string, timeout time.Duration) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	blob, err := e.content.OpenRef(stageCtx, ref)
	if err != nil {
		return "", err
	}
	defer blob.Close()

	staged := filepath.Join(stageDir, ref.Hash)
	f, err := os.Create(staged)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n, err := io.Copy(f, blob)
	if err != nil {
		return "", err
	}
	if n != ref.Size {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, n, ref.Size)
	}
	return staged, nil
}
