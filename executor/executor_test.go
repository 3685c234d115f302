package executor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/extract"
	"github.com/poiesic/sift/objectstore"
	"github.com/poiesic/sift/planner"
	"github.com/poiesic/sift/services/mock"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = "11111111-2222-3333-4444-555555555555"

type testEnv struct {
	db       storage.Store
	content  *content.Store
	executor *Executor
	planner  *planner.Planner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		backend.Close()
	})

	contentStore, err := content.NewStore(db, objectstore.NewMemoryStore())
	require.NoError(t, err)

	router, err := extract.NewRouter(db)
	require.NoError(t, err)
	router.Register(extract.NewTextExtractor(db), core.KindText)
	router.Register(extract.NewMetadataExtractor(db, mock.NewMockMetadataService()), core.KindPDF)

	exec, err := NewExecutor(db, contentStore, router)
	require.NoError(t, err)
	t.Cleanup(exec.Close)

	p, err := planner.NewPlanner(db)
	require.NoError(t, err)

	return &testEnv{db: db, content: contentStore, executor: exec, planner: p}
}

func (env *testEnv) ingest(t *testing.T, path string, data []byte) *core.BlobRef {
	t.Helper()
	ctx := context.Background()
	ref, _, err := env.content.PutReader(ctx, testDataset, bytes.NewReader(data))
	require.NoError(t, err)
	_, err = env.db.PutFiles(ctx, &core.VFSFile{
		Dataset: testDataset,
		Path:    path,
		Hash:    ref.Hash,
		Size:    ref.Size,
	})
	require.NoError(t, err)
	return ref
}

func TestExecutePlanEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	refA := env.ingest(t, "a.txt", []byte("alpha text content"))
	refB := env.ingest(t, "b.txt", []byte("beta text content"))

	planned, err := env.planner.ComputePlans(ctx, testDataset)
	require.NoError(t, err)
	require.Len(t, planned.Plans, 1)

	executed, err := env.executor.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.NoError(t, err)
	assert.True(t, executed)

	finished, err := env.db.Finished(ctx, testDataset, planned.Plans[0])
	require.NoError(t, err)
	assert.True(t, finished)

	for _, ref := range []*core.BlobRef{refA, refB} {
		records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
		require.NoError(t, err)
		// generic + text extractors both ran.
		assert.Len(t, records, 2)
	}
}

func TestExecutePlanIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.ingest(t, "one.txt", []byte("only item"))
	planned, err := env.planner.ComputePlans(ctx, testDataset)
	require.NoError(t, err)
	require.Len(t, planned.Plans, 1)

	executed, err := env.executor.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.NoError(t, err)
	assert.True(t, executed)

	// Re-execution observes the completion marker and does nothing.
	executed, err = env.executor.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.NoError(t, err)
	assert.False(t, executed)
}

func TestExecutePlanStagingFailureKeepsPlanPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := env.ingest(t, "bad.txt", []byte("unreachable content"))

	// Corrupt the size so staging fails verification, standing in for
	// an object-store outage.
	ref, err := env.db.GetBlob(ctx, testDataset, bad.Hash)
	require.NoError(t, err)
	ref.Size = ref.Size + 7
	_, err = env.db.PutBlobs(ctx, ref)
	require.NoError(t, err)

	planned, err := env.planner.ComputePlans(ctx, testDataset)
	require.NoError(t, err)
	require.Len(t, planned.Plans, 1)

	// The attempt aborts without reaching the completion barrier.
	_, err = env.executor.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	finished, err := env.db.Finished(ctx, testDataset, planned.Plans[0])
	require.NoError(t, err)
	assert.False(t, finished)

	// The plan is still selectable for a later attempt.
	pending, err := env.db.PendingPlans(ctx, testDataset, "", 10)
	require.NoError(t, err)
	assert.Contains(t, pending, planned.Plans[0])

	// Restore the real size; the retry succeeds and finishes the plan.
	ref.Size = ref.Size - 7
	_, err = env.db.PutBlobs(ctx, ref)
	require.NoError(t, err)

	executed, err := env.executor.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.NoError(t, err)
	assert.True(t, executed)

	finished, err = env.db.Finished(ctx, testDataset, planned.Plans[0])
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestExecutePlanExtractorFailureDoesNotBlockBarrier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parser := mock.NewMockMetadataService()
	parser.Err = assert.AnError

	router, err := extract.NewRouter(env.db)
	require.NoError(t, err)
	router.Register(extract.NewMetadataExtractor(env.db, parser), core.KindPDF)
	exec, err := NewExecutor(env.db, env.content, router)
	require.NoError(t, err)
	t.Cleanup(exec.Close)

	good := env.ingest(t, "good.txt", []byte("fine content"))
	broken := env.ingest(t, "broken.pdf", []byte("%PDF-1.4\nbroken"))

	planned, err := env.planner.ComputePlans(ctx, testDataset)
	require.NoError(t, err)
	require.Len(t, planned.Plans, 1)

	executed, err := exec.ExecutePlan(ctx, testDataset, planned.Plans[0], 0)
	require.NoError(t, err)
	assert.True(t, executed)

	// The plan finished despite the parser failure; the failure is on
	// record and the sibling was fully processed.
	finished, err := env.db.Finished(ctx, testDataset, planned.Plans[0])
	require.NoError(t, err)
	assert.True(t, finished)

	errs, err := env.db.ErrorsByHash(ctx, testDataset, broken.Hash)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "tika", errs[0].Task)

	records, err := env.db.RecordsByHashes(ctx, testDataset, good.Hash)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExecutePendingPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.ingest(t, "x.txt", []byte("x file"))
	env.ingest(t, "y.txt", []byte("y file"))

	planned, err := env.planner.ComputePlans(ctx, testDataset)
	require.NoError(t, err)
	require.Len(t, planned.Plans, 1)

	result, err := env.executor.ExecutePending(ctx, testDataset, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Executed)

	// Nothing pending on the second pass.
	result, err = env.executor.ExecutePending(ctx, testDataset, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Executed)
}

func TestBudgetsScaleWithSize(t *testing.T) {
	assert.Equal(t, budgetFloor, stageBudget(0))
	assert.Equal(t, budgetFloor+time.Second, stageBudget(downloadRate))
	assert.Greater(t, parseBudget(1<<20), stageBudget(1<<20))
}
