package dsg

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// MemoryGuard is the memory-pressure hook the indexer calls between records.
// A non-nil error aborts the run as domain.ErrResourceExhausted.
type MemoryGuard interface {
	Check() error
}

// MemoryGuardFunc adapts a function to MemoryGuard.
type MemoryGuardFunc func() error

// Check implements MemoryGuard.
func (f MemoryGuardFunc) Check() error { return f() }

// Indexer groups observations per sensor and collects each sensor's distinct
// longitudes, latitudes and heights.
type Indexer struct {
	axes          *AxisClassifier
	normalizer    *GeometryNormalizer
	guard         MemoryGuard
	guardInterval int
}

// NewIndexer creates an indexer. guard may be nil; guardInterval is the number
// of observations between guard checks.
func NewIndexer(axes *AxisClassifier, normalizer *GeometryNormalizer, guard MemoryGuard, guardInterval int) *Indexer {
	if guardInterval <= 0 {
		guardInterval = 1
	}
	if axes == nil {
		axes = NewAxisClassifier(nil, nil, nil)
	}
	if normalizer == nil {
		normalizer = NewGeometryNormalizer(AxisOrderLonLat, 4326, NewEPSGRegistry(nil, nil))
	}
	return &Indexer{
		axes:          axes,
		normalizer:    normalizer,
		guard:         guard,
		guardInterval: guardInterval,
	}
}

// Index consumes observations in order and returns one accumulator per sensor.
// The first failing observation aborts the whole run with a
// *domain.ObservationError.
func (ix *Indexer) Index(observations []domain.Observation) (map[string]*SensorAccumulator, error) {
	accs := make(map[string]*SensorAccumulator)
	for i := range observations {
		if ix.guard != nil && i%ix.guardInterval == 0 {
			if err := ix.guard.Check(); err != nil {
				if !errors.Is(err, domain.ErrResourceExhausted) {
					err = fmt.Errorf("%w: %w", domain.ErrResourceExhausted, err)
				}
				return nil, fmt.Errorf("index after %d observations: %w", i, err)
			}
		}

		obs := &observations[i]
		if err := ix.add(accs, obs); err != nil {
			return nil, &domain.ObservationError{
				Index:         i,
				ObservationID: obs.ID,
				SensorID:      obs.SensorID(),
				Err:           err,
			}
		}
	}
	return accs, nil
}

func (ix *Indexer) add(accs map[string]*SensorAccumulator, obs *domain.Observation) error {
	if !obs.Feature.Kind.IsSampling() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFeatureKind, obs.Feature.Kind)
	}
	if !obs.Value.Kind.IsScalarNumeric() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedValueKind, obs.Value.Kind)
	}

	sensorID := obs.SensorID()
	acc, ok := accs[sensorID]
	if !ok {
		acc = newSensorAccumulator(obs.Procedure)
		accs[sensorID] = acc
	}

	valuePhen := obs.Property.Phenomenon
	if valuePhen.Unit == "" {
		valuePhen.Unit = obs.Value.Unit
	}
	if obs.Property.IsComposite() {
		for _, c := range obs.Property.Components {
			if c.Unit == "" {
				c.Unit = obs.Value.Unit
			}
			acc.phenomena.add(c)
		}
	} else {
		acc.phenomena.add(valuePhen)
	}

	featureGeom, err := ix.normalizer.Normalize(obs.Feature.Geometry)
	if err != nil {
		return fmt.Errorf("feature %q: %w", obs.Feature.ID, err)
	}
	ix.addPositions(acc, featureGeom)

	// A sensor reporting its own coordinate as a plain phenomenon feeds the
	// matching axis. Composite observations never do.
	if !obs.Property.IsComposite() {
		id := obs.Property.ID
		switch {
		case ix.axes.IsLongitude(id):
			acc.Longitudes.Add(obs.Value.Number)
		case ix.axes.IsLatitude(id):
			acc.Latitudes.Add(obs.Value.Number)
		case ix.axes.IsVertical(id):
			acc.Heights.Add(obs.Value.Number)
		}
	}

	if obs.Parameters.HeightDepth != nil {
		acc.Heights.Add(*obs.Parameters.HeightDepth)
	}

	var sub SubSensor
	if obs.Parameters.SamplingGeometry != nil {
		samplingGeom, err := ix.normalizer.Normalize(obs.Parameters.SamplingGeometry)
		if err != nil {
			return fmt.Errorf("sampling geometry: %w", err)
		}
		ix.addPositions(acc, samplingGeom)
		for _, h := range samplingGeom.Heights() {
			acc.Heights.Add(h)
		}
		sub = ResolveSubSensor(samplingGeom)
	} else {
		sub = ResolveFeatureSubSensor(sensorID, domain.Feature{
			ID:       obs.Feature.ID,
			Kind:     obs.Feature.Kind,
			Geometry: featureGeom,
		})
	}

	acc.put(obs.Time, valuePhen, sub, obs.Value.Number)
	return nil
}

func (ix *Indexer) addPositions(acc *SensorAccumulator, g *domain.Geometry) {
	if g == nil {
		return
	}
	for _, c := range g.Coordinates {
		lon, lat := ix.normalizer.LonLat(c)
		acc.Longitudes.Add(lon)
		acc.Latitudes.Add(lat)
	}
}
