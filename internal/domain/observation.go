package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Procedure identifies the sensor that produced an observation.
type Procedure struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Phenomenon is an observed property with an optional unit of measure.
type Phenomenon struct {
	ID   string `json:"id"`
	Unit string `json:"unit,omitempty"`
}

// ObservableProperty is either a single phenomenon or a composite whose
// Components are observed together.
type ObservableProperty struct {
	Phenomenon
	Components []Phenomenon
}

// IsComposite reports whether the property decomposes into components.
func (p ObservableProperty) IsComposite() bool {
	return len(p.Components) > 0
}

// FeatureKind names the feature-of-interest shape.
type FeatureKind string

const (
	FeatureSamplingPoint   FeatureKind = "SamplingPoint"
	FeatureSamplingCurve   FeatureKind = "SamplingCurve"
	FeatureSamplingSurface FeatureKind = "SamplingSurface"
	FeatureSamplingSolid   FeatureKind = "SamplingSolid"
)

// IsSampling reports whether the kind is one of the sampling-feature shapes.
func (k FeatureKind) IsSampling() bool {
	switch k {
	case FeatureSamplingPoint, FeatureSamplingCurve, FeatureSamplingSurface, FeatureSamplingSolid:
		return true
	default:
		return false
	}
}

// Feature is the feature of interest an observation is about.
type Feature struct {
	ID       string
	Kind     FeatureKind
	Geometry *Geometry
}

// ValueKind names the result shape of an observation.
type ValueKind string

const (
	ValueQuantity   ValueKind = "Quantity"
	ValueCount      ValueKind = "Count"
	ValueBoolean    ValueKind = "Boolean"
	ValueCategory   ValueKind = "Category"
	ValueText       ValueKind = "Text"
	ValueTimeSeries ValueKind = "TimeSeries"
	ValueDataArray  ValueKind = "DataArray"
)

// IsScalarNumeric reports whether the kind holds a single number.
func (k ValueKind) IsScalarNumeric() bool {
	return k == ValueQuantity || k == ValueCount
}

// Value is an observation result. Number is meaningful for scalar numeric kinds only.
type Value struct {
	Kind   ValueKind
	Number float64
	Unit   string
}

// Parameters are the optional named parameters an observation may carry.
type Parameters struct {
	// HeightDepth is an explicit vertical position for the observed value.
	HeightDepth *float64
	// SamplingGeometry replaces the feature geometry for dimensional purposes.
	SamplingGeometry *Geometry
}

// Observation is one time-stamped, geo-referenced sensor reading.
type Observation struct {
	ID         string
	Procedure  Procedure
	Property   ObservableProperty
	Feature    Feature
	Time       Time
	Value      Value
	Parameters Parameters
}

// SensorID returns the identifier of the producing sensor.
func (o Observation) SensorID() string {
	return o.Procedure.ID
}
