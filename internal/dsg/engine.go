package dsg

import (
	"context"
	"io"
	"log/slog"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// DefaultGuardInterval is the number of observations between memory guard checks.
const DefaultGuardInterval = 1000

// Options configures an Engine. Zero fields fall back to defaults: no axis
// identifiers, lon/lat canonical order with EPSG:4326 and the built-in EPSG
// registry, no memory guard.
type Options struct {
	Axes          *AxisClassifier
	Normalizer    *GeometryNormalizer
	Guard         MemoryGuard
	GuardInterval int
	Logger        *slog.Logger
}

// Engine turns a batch of observations into per-feature-type datasets.
// A run is synchronous and keeps no state between calls.
type Engine struct {
	axes          *AxisClassifier
	normalizer    *GeometryNormalizer
	guard         MemoryGuard
	guardInterval int
	logger        *slog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		axes:          opts.Axes,
		normalizer:    opts.Normalizer,
		guard:         opts.Guard,
		guardInterval: opts.GuardInterval,
		logger:        opts.Logger,
	}
	if e.axes == nil {
		e.axes = NewAxisClassifier(nil, nil, nil)
	}
	if e.normalizer == nil {
		e.normalizer = NewGeometryNormalizer(AxisOrderLonLat, 4326, NewEPSGRegistry(nil, nil))
	}
	if e.guardInterval <= 0 {
		e.guardInterval = DefaultGuardInterval
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Run indexes, classifies and aggregates the observations. Any error aborts
// the run and no datasets are returned.
func (e *Engine) Run(observations []domain.Observation) ([]*Dataset, error) {
	ix := NewIndexer(e.axes, e.normalizer, e.guard, e.guardInterval)
	accs, err := ix.Index(observations)
	if err != nil {
		return nil, err
	}

	datasets := Aggregate(accs)

	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, ds := range datasets {
			for _, id := range ds.SensorIDs() {
				s := ds.Sensors[id]
				e.logger.Debug("sensor classified",
					"sensor_id", id,
					"feature_type", ds.FeatureType.String(),
					"values", s.acc.Len(),
					"longitudes", s.acc.Longitudes.Len(),
					"latitudes", s.acc.Latitudes.Len(),
					"heights", s.acc.Heights.Len(),
				)
			}
		}
	}
	e.logger.Debug("engine run complete",
		"observations", len(observations),
		"sensors", len(accs),
		"datasets", len(datasets),
	)
	return datasets, nil
}
