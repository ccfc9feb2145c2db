package dsg

import (
	"math"
	"sort"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// ValueKey addresses one grouped value: time, phenomenon identifier and sub-sensor.
type ValueKey struct {
	Time       domain.TimeKey
	Phenomenon string
	SubSensor  SubSensor
}

func (k ValueKey) less(o ValueKey) bool {
	if k.Time != o.Time {
		return k.Time.Less(o.Time)
	}
	if k.Phenomenon != o.Phenomenon {
		return k.Phenomenon < o.Phenomenon
	}
	return k.SubSensor.Less(o.SubSensor)
}

// ValueRow is one entry of a sensor's grouped values in output order.
type ValueRow struct {
	Time       domain.Time
	Phenomenon domain.Phenomenon
	SubSensor  SubSensor
	Value      float64
}

// SensorAccumulator is the working state the indexer builds for one sensor:
// the grouped values plus the distinct positions seen.
type SensorAccumulator struct {
	SensorID  string
	Procedure domain.Procedure

	values     map[ValueKey]float64
	times      map[domain.TimeKey]domain.Time
	valueProps map[string]domain.Phenomenon
	phenomena  phenomenonSet

	Longitudes FloatSet
	Latitudes  FloatSet
	Heights    FloatSet
}

func newSensorAccumulator(procedure domain.Procedure) *SensorAccumulator {
	return &SensorAccumulator{
		SensorID:   procedure.ID,
		Procedure:  procedure,
		values:     make(map[ValueKey]float64),
		times:      make(map[domain.TimeKey]domain.Time),
		valueProps: make(map[string]domain.Phenomenon),
		phenomena:  newPhenomenonSet(),
		Longitudes: NewFloatSet(),
		Latitudes:  NewFloatSet(),
		Heights:    NewFloatSet(),
	}
}

// put stores a value, overwriting any earlier value under the same key.
func (a *SensorAccumulator) put(t domain.Time, phen domain.Phenomenon, sub SubSensor, v float64) {
	key := ValueKey{Time: t.Key(), Phenomenon: phen.ID, SubSensor: sub}
	a.values[key] = v
	if _, ok := a.times[key.Time]; !ok {
		a.times[key.Time] = t
	}
	if _, ok := a.valueProps[phen.ID]; !ok {
		a.valueProps[phen.ID] = phen
	}
}

// Value looks up one grouped value.
func (a *SensorAccumulator) Value(key ValueKey) (float64, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of grouped values.
func (a *SensorAccumulator) Len() int {
	return len(a.values)
}

// Times returns the distinct time keys in ascending order.
func (a *SensorAccumulator) Times() []domain.Time {
	keys := make([]domain.TimeKey, 0, len(a.times))
	for k := range a.times {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]domain.Time, len(keys))
	for i, k := range keys {
		out[i] = a.times[k]
	}
	return out
}

// Phenomena returns the phenomena seen for this sensor, ordered by identifier.
func (a *SensorAccumulator) Phenomena() []domain.Phenomenon {
	return a.phenomena.sorted()
}

// Rows returns every grouped value ordered by time, phenomenon and sub-sensor.
func (a *SensorAccumulator) Rows() []ValueRow {
	keys := make([]ValueKey, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	rows := make([]ValueRow, len(keys))
	for i, k := range keys {
		rows[i] = ValueRow{
			Time:       a.times[k.Time],
			Phenomenon: a.valueProps[k.Phenomenon],
			SubSensor:  k.SubSensor,
			Value:      a.values[k],
		}
	}
	return rows
}

// FloatSet is a set of distinct finite-or-infinite values; NaN is never stored.
type FloatSet struct {
	m map[float64]struct{}
}

// NewFloatSet returns an empty set.
func NewFloatSet(values ...float64) FloatSet {
	s := FloatSet{m: make(map[float64]struct{})}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v unless it is NaN.
func (s FloatSet) Add(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.m[v] = struct{}{}
}

// Len returns the number of distinct values.
func (s FloatSet) Len() int { return len(s.m) }

// Sole returns the only member when the set has exactly one.
func (s FloatSet) Sole() (float64, bool) {
	if len(s.m) != 1 {
		return 0, false
	}
	for v := range s.m {
		return v, true
	}
	return 0, false
}

// Values returns the members in ascending order.
func (s FloatSet) Values() []float64 {
	out := make([]float64, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// Bounds returns the minimum and maximum member; ok is false for an empty set.
func (s FloatSet) Bounds() (lo, hi float64, ok bool) {
	if len(s.m) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for v := range s.m {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

// phenomenonSet keeps the first phenomenon seen per identifier.
type phenomenonSet struct {
	m map[string]domain.Phenomenon
}

func newPhenomenonSet() phenomenonSet {
	return phenomenonSet{m: make(map[string]domain.Phenomenon)}
}

func (s phenomenonSet) add(p domain.Phenomenon) {
	if _, ok := s.m[p.ID]; ok {
		return
	}
	s.m[p.ID] = p
}

func (s phenomenonSet) union(o phenomenonSet) {
	for _, p := range o.m {
		s.add(p)
	}
}

func (s phenomenonSet) sorted() []domain.Phenomenon {
	out := make([]domain.Phenomenon, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
