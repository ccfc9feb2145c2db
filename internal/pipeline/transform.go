package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
)

// Result is the outcome of transforming one batch.
type Result struct {
	Datasets    []*dsg.Dataset
	Accepted    int // observations that made it into Datasets
	Rejected    int // decoded but refused by the engine
	Undecodable int
}

// DSGTransformer decodes observations and classifies them with the engine.
//
// The engine fails a whole run on the first bad observation. DSGTransformer
// drops that observation and reruns the rest. When the memory guard aborts a
// run, the observations are split in halves and each half is run on its own,
// down to a single observation; only then does the error surface.
//
// Classification is per batch. A sensor whose observations span a Kafka batch
// boundary or a memory split is classified once per part, so its feature type
// can differ from a run over the whole collection: a profiler whose heights
// land in different halves comes out as a time series in each.
type DSGTransformer struct {
	engine  *dsg.Engine
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a DSGTransformer.
func NewTransformer(engine *dsg.Engine, logger *slog.Logger, metrics *observability.Metrics) *DSGTransformer {
	return &DSGTransformer{
		engine:  engine,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *DSGTransformer) Transform(ctx context.Context, batch []domain.RawEvent) (Result, error) {
	var res Result
	observations := make([]domain.Observation, 0, len(batch))
	for _, raw := range batch {
		obs, err := domain.ParseRawEvent(raw)
		if err != nil {
			t.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			t.metrics.DecodeErrors.Inc()
			res.Undecodable++
			continue
		}
		observations = append(observations, obs)
	}

	if err := t.classify(ctx, observations, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (t *DSGTransformer) classify(ctx context.Context, observations []domain.Observation, res *Result) error {
	for len(observations) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		datasets, err := t.run(observations)
		if err == nil {
			res.Datasets = append(res.Datasets, datasets...)
			res.Accepted += len(observations)
			return nil
		}

		if errors.Is(err, domain.ErrResourceExhausted) {
			if len(observations) == 1 {
				return err
			}
			mid := len(observations) / 2
			t.metrics.BatchSplits.Inc()
			t.logger.Warn("memory pressure, splitting batch", "error", err, "size", len(observations))
			if err := t.classify(ctx, observations[:mid], res); err != nil {
				return err
			}
			return t.classify(ctx, observations[mid:], res)
		}

		var obsErr *domain.ObservationError
		if !errors.As(err, &obsErr) {
			return err
		}
		t.logger.Warn("observation rejected",
			"error", obsErr.Err,
			"observation_id", obsErr.ObservationID,
			"sensor_id", obsErr.SensorID,
		)
		t.metrics.ObservationsRejected.WithLabelValues(rejectionReason(obsErr.Err)).Inc()
		res.Rejected++

		i := obsErr.Index
		observations = append(observations[:i:i], observations[i+1:]...)
	}
	return nil
}

func (t *DSGTransformer) run(observations []domain.Observation) ([]*dsg.Dataset, error) {
	start := time.Now()
	datasets, err := t.engine.Run(observations)
	t.metrics.EngineRunDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		t.metrics.EngineRuns.WithLabelValues(observability.OutcomeSuccess).Inc()
		for _, ds := range datasets {
			t.metrics.SensorsClassified.WithLabelValues(ds.FeatureType.String()).Add(float64(len(ds.Sensors)))
		}
	case errors.Is(err, domain.ErrResourceExhausted):
		t.metrics.EngineRuns.WithLabelValues(observability.OutcomeResourceExhausted).Inc()
	default:
		t.metrics.EngineRuns.WithLabelValues(observability.OutcomeRejected).Inc()
	}
	return datasets, err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFeatureKind):
		return observability.ReasonFeatureKind
	case errors.Is(err, domain.ErrUnsupportedValueKind):
		return observability.ReasonValueKind
	case errors.Is(err, domain.ErrGeometryNormalization):
		return observability.ReasonGeometry
	default:
		return observability.ReasonOther
	}
}
