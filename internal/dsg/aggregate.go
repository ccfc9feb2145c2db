package dsg

import (
	"sort"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/paulmach/orb"
)

// SensorDataset is one sensor's grouped values with the positions that stay
// fixed for it. Longitude, Latitude and Height are nil unless static.
type SensorDataset struct {
	SensorID    string
	Procedure   domain.Procedure
	FeatureType FeatureType
	Longitude   *float64
	Latitude    *float64
	Height      *float64

	acc *SensorAccumulator
}

// Rows returns the grouped values in output order.
func (s *SensorDataset) Rows() []ValueRow { return s.acc.Rows() }

// Times returns the sensor's distinct times in ascending order.
func (s *SensorDataset) Times() []domain.Time { return s.acc.Times() }

// Phenomena returns the sensor's phenomena ordered by identifier.
func (s *SensorDataset) Phenomena() []domain.Phenomenon { return s.acc.Phenomena() }

// Value looks up one grouped value.
func (s *SensorDataset) Value(key ValueKey) (float64, bool) { return s.acc.Value(key) }

// Heights returns the sensor's distinct heights in ascending order.
func (s *SensorDataset) Heights() []float64 { return s.acc.Heights.Values() }

// Dataset groups every sensor of one feature type.
type Dataset struct {
	FeatureType FeatureType
	TimeSpan    TimeSpan
	Sensors     map[string]*SensorDataset
	Phenomena   []domain.Phenomenon
	Envelope    Envelope
}

// SensorIDs returns the member sensor identifiers in ascending order.
func (d *Dataset) SensorIDs() []string {
	ids := make([]string, 0, len(d.Sensors))
	for id := range d.Sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type datasetBuilder struct {
	ds        *Dataset
	phenomena phenomenonSet
}

func (b *datasetBuilder) add(acc *SensorAccumulator, c Classification) {
	for _, t := range acc.Times() {
		b.ds.TimeSpan.Extend(t)
	}
	b.phenomena.union(acc.phenomena)

	switch {
	case c.Longitude != nil && c.Latitude != nil:
		b.ds.Envelope.ExpandToPoint(orb.Point{*c.Longitude, *c.Latitude})
	case c.LocationVaries():
		minLon, maxLon, _ := acc.Longitudes.Bounds()
		minLat, maxLat, _ := acc.Latitudes.Bounds()
		b.ds.Envelope.ExpandToBound(orb.Bound{
			Min: orb.Point{minLon, minLat},
			Max: orb.Point{maxLon, maxLat},
		})
	}

	b.ds.Sensors[acc.SensorID] = &SensorDataset{
		SensorID:    acc.SensorID,
		Procedure:   acc.Procedure,
		FeatureType: c.FeatureType,
		Longitude:   c.Longitude,
		Latitude:    c.Latitude,
		Height:      c.Height,
		acc:         acc,
	}
}

// Aggregate classifies every sensor and groups them by feature type. Types
// without sensors are omitted; the rest follow FeatureTypes order.
func Aggregate(accs map[string]*SensorAccumulator) []*Dataset {
	ids := make([]string, 0, len(accs))
	for id := range accs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	builders := make(map[FeatureType]*datasetBuilder, len(FeatureTypes))
	for _, id := range ids {
		acc := accs[id]
		c := Classify(acc)
		b, ok := builders[c.FeatureType]
		if !ok {
			b = &datasetBuilder{
				ds: &Dataset{
					FeatureType: c.FeatureType,
					Sensors:     make(map[string]*SensorDataset),
				},
				phenomena: newPhenomenonSet(),
			}
			builders[c.FeatureType] = b
		}
		b.add(acc, c)
	}

	out := make([]*Dataset, 0, len(builders))
	for _, ft := range FeatureTypes {
		b, ok := builders[ft]
		if !ok {
			continue
		}
		b.ds.Phenomena = b.phenomena.sorted()
		out = append(out, b.ds)
	}
	return out
}
