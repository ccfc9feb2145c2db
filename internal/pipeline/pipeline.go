package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a batch of raw events into feature-type datasets.
type Transformer interface {
	Transform(ctx context.Context, batch []domain.RawEvent) (Result, error)
}

// BatchLoader writes the datasets of one batch to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batchID string, datasets []*dsg.Dataset) error
}

// Status is a snapshot of pipeline progress.
type Status struct {
	BatchesLoaded    int            `json:"batches_loaded"`
	LastBatchID      string         `json:"last_batch_id,omitempty"`
	LastBatchAt      time.Time      `json:"last_batch_at"`
	LastFeatureTypes map[string]int `json:"last_feature_types,omitempty"` // sensors per feature type
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	ready       atomic.Bool
	batchSize   int

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("github.com/couchcryptid/storm-data-dsg/internal/pipeline"),
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any datasets yet")
	}
	return nil
}

// Status returns a copy of the current progress snapshot.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	if s.LastFeatureTypes != nil {
		s.LastFeatureTypes = make(map[string]int, len(p.status.LastFeatureTypes))
		for k, v := range p.status.LastFeatureTypes {
			s.LastFeatureTypes[k] = v
		}
	}
	return s
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. A batch that fails to
// transform or load is retried with backoff until it succeeds or the pipeline
// stops. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ObservationsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	batchID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "pipeline.batch", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.size", len(rawBatch)),
	))
	defer span.End()

	for {
		res, err := p.transformAndLoad(ctx, batchID, rawBatch)
		if err == nil {
			span.SetAttributes(attribute.Int("batch.datasets", len(res.Datasets)))
			for _, raw := range rawBatch {
				p.commitOffset(ctx, raw)
			}
			if len(res.Datasets) > 0 {
				p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
				p.recordLoaded(batchID, res.Datasets)
				p.ready.Store(true)
			}
			return true
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// transformAndLoad runs the transformer over the batch and loads the resulting
// datasets. Records the transformer skipped are part of a successful result.
func (p *Pipeline) transformAndLoad(ctx context.Context, batchID string, rawBatch []domain.RawEvent) (Result, error) {
	res, err := p.transformer.Transform(ctx, rawBatch)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("transform batch failed", "error", err, "batch_id", batchID, "batch_size", len(rawBatch))
		}
		return Result{}, err
	}

	if len(res.Datasets) == 0 {
		p.logger.Warn("batch produced no datasets", "batch_id", batchID,
			"undecodable", res.Undecodable, "rejected", res.Rejected)
		return res, nil
	}

	if err := p.loader.LoadBatch(ctx, batchID, res.Datasets); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_id", batchID, "datasets", len(res.Datasets))
		return Result{}, err
	}

	p.metrics.DatasetsProduced.Add(float64(len(res.Datasets)))
	p.logger.Info("batch loaded",
		"batch_id", batchID,
		"observations", res.Accepted,
		"rejected", res.Rejected,
		"undecodable", res.Undecodable,
		"datasets", len(res.Datasets),
	)
	return res, nil
}

func (p *Pipeline) recordLoaded(batchID string, datasets []*dsg.Dataset) {
	counts := make(map[string]int, len(datasets))
	for _, ds := range datasets {
		counts[ds.FeatureType.String()] += len(ds.Sensors)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.BatchesLoaded++
	p.status.LastBatchID = batchID
	p.status.LastBatchAt = domain.Now()
	p.status.LastFeatureTypes = counts
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
