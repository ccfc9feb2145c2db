package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/mockdata"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
	"github.com/couchcryptid/storm-data-dsg/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type loadCall struct {
	batchID  string
	datasets []*dsg.Dataset
}

type mockLoader struct {
	mu       sync.Mutex
	failures int // calls to fail before succeeding
	calls    []loadCall
	loaded   []loadCall
}

func (m *mockLoader) LoadBatch(_ context.Context, batchID string, datasets []*dsg.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, loadCall{batchID: batchID, datasets: datasets})
	if len(m.calls) <= m.failures {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, loadCall{batchID: batchID, datasets: datasets})
	return nil
}

func (m *mockLoader) snapshot() (calls, loaded []loadCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]loadCall(nil), m.calls...), append([]loadCall(nil), m.loaded...)
}

func newTestMetrics() *observability.Metrics {
	// Use unregistered metrics to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newTestEngine() *dsg.Engine {
	return dsg.New(dsg.Options{
		Axes: dsg.NewAxisClassifier([]string{"longitude"}, []string{"latitude"}, []string{"depth"}),
	})
}

func newTestPipeline(ext pipeline.BatchExtractor, ldr pipeline.BatchLoader) *pipeline.Pipeline {
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(newTestEngine(), slog.Default(), metrics)
	return pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 100)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	raws := rawEvents(t, mockdata.Fleet(mockdata.Options{Steps: 3}))
	ext := &mockExtractor{batches: [][]domain.RawEvent{raws}}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	_, loaded := ldr.snapshot()
	require.Len(t, loaded, 1)
	assert.Len(t, loaded[0].datasets, len(dsg.FeatureTypes))
	assert.NotEmpty(t, loaded[0].batchID)
	require.NoError(t, p.CheckReadiness(context.Background()))

	status := p.Status()
	assert.Equal(t, 1, status.BatchesLoaded)
	assert.Equal(t, loaded[0].batchID, status.LastBatchID)
	assert.Equal(t, fakeClock.Now(), status.LastBatchAt)
	assert.Equal(t, map[string]int{
		"timeSeries":        1,
		"timeSeriesProfile": 2,
		"trajectory":        1,
		"trajectoryProfile": 1,
	}, status.LastFeatureTypes)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)

	calls, _ := ldr.snapshot()
	assert.Empty(t, calls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_UndecodableBatchIsCommitted(t *testing.T) {
	var commits atomic.Int64
	raws := []domain.RawEvent{
		{Value: []byte("not json"), Commit: countCommit(&commits)},
		{Value: []byte(`{"procedure":{"id":"s"}}`), Commit: countCommit(&commits)},
	}
	ext := &mockExtractor{batches: [][]domain.RawEvent{raws}}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	calls, _ := ldr.snapshot()
	assert.Empty(t, calls)
	assert.Equal(t, int64(2), commits.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RetriesSameBatchAfterLoadFailure(t *testing.T) {
	var commits atomic.Int64
	raws := rawEvents(t, mockdata.Fleet(mockdata.Options{Steps: 2}))
	for i := range raws {
		raws[i].Commit = countCommit(&commits)
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{raws}}
	ldr := &mockLoader{failures: 1}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	calls, loaded := ldr.snapshot()
	require.Len(t, calls, 2)
	require.Len(t, loaded, 1)
	assert.Equal(t, calls[0].batchID, calls[1].batchID, "retry keeps the batch id")
	assert.Equal(t, int64(len(raws)), commits.Load(), "offsets committed once, after the successful load")
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	ldr := &mockLoader{}
	var loadedBeforeCommit atomic.Bool

	raws := rawEvents(t, mockdata.Fleet(mockdata.Options{Steps: 2}))
	raws[0].Topic = "raw-observations"
	raws[0].Commit = func(_ context.Context) error {
		_, loaded := ldr.snapshot()
		loadedBeforeCommit.Store(len(loaded) == 1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{raws}}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, loadedBeforeCommit.Load())
}

func TestPipeline_Run_SeparateBatchesGetSeparateIDs(t *testing.T) {
	fleet := mockdata.Fleet(mockdata.Options{Steps: 2})
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		rawEvents(t, fleet[:len(fleet)/2]),
		rawEvents(t, fleet[len(fleet)/2:]),
	}}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	_, loaded := ldr.snapshot()
	require.Len(t, loaded, 2)
	assert.NotEqual(t, loaded[0].batchID, loaded[1].batchID)
	assert.Equal(t, 2, p.Status().BatchesLoaded)
}

// --- helpers ---

func countCommit(n *atomic.Int64) func(context.Context) error {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func rawEvents(t *testing.T, observations []domain.Observation) []domain.RawEvent {
	t.Helper()
	out := make([]domain.RawEvent, len(observations))
	for i, o := range observations {
		data, err := domain.EncodeObservation(o)
		require.NoError(t, err)
		out[i] = domain.RawEvent{
			Key:    []byte(o.SensorID()),
			Value:  data,
			Offset: int64(i),
		}
	}
	return out
}
