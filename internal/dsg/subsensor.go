package dsg

import (
	"fmt"
	"math"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// SubSensorKind tags the variant held by a SubSensor.
type SubSensorKind int

const (
	// SubSensorNone means the value belongs to the sensor itself.
	SubSensorNone SubSensorKind = iota
	// SubSensorProfilePoint is a single height below a profiling sensor.
	SubSensorProfilePoint
	// SubSensorProfileBin is a vertical bin between a top and a bottom height.
	SubSensorProfileBin
)

func (k SubSensorKind) String() string {
	switch k {
	case SubSensorProfilePoint:
		return "profilePoint"
	case SubSensorProfileBin:
		return "profileBin"
	default:
		return "none"
	}
}

// SubSensor is a nested sampling location beneath a sensor. It is comparable
// and used directly as a map key: equal kind and heights mean the same bucket.
// The zero value is the absent sub-sensor.
type SubSensor struct {
	kind   SubSensorKind
	top    float64
	bottom float64
}

// NoSubSensor is the absent sub-sensor.
var NoSubSensor = SubSensor{}

// ProfilePoint builds a single-height sub-sensor.
func ProfilePoint(height float64) SubSensor {
	return SubSensor{kind: SubSensorProfilePoint, top: height, bottom: height}
}

// ProfileBin builds a bin sub-sensor; the arguments may come in either order.
func ProfileBin(top, bottom float64) SubSensor {
	return SubSensor{kind: SubSensorProfileBin, top: math.Max(top, bottom), bottom: math.Min(top, bottom)}
}

// Kind returns the variant tag.
func (s SubSensor) Kind() SubSensorKind { return s.kind }

// IsNone reports whether the sub-sensor is absent.
func (s SubSensor) IsNone() bool { return s.kind == SubSensorNone }

// Height returns the height of a profile point.
func (s SubSensor) Height() float64 { return s.top }

// Top returns the upper height of a bin (the height of a point).
func (s SubSensor) Top() float64 { return s.top }

// Bottom returns the lower height of a bin (the height of a point).
func (s SubSensor) Bottom() float64 { return s.bottom }

func (s SubSensor) String() string {
	switch s.kind {
	case SubSensorProfilePoint:
		return fmt.Sprintf("profilePoint(%g)", s.top)
	case SubSensorProfileBin:
		return fmt.Sprintf("profileBin(%g..%g)", s.top, s.bottom)
	default:
		return "none"
	}
}

// Less orders none before points before bins, then by top and bottom height.
func (s SubSensor) Less(o SubSensor) bool {
	if s.kind != o.kind {
		return s.kind < o.kind
	}
	if s.top != o.top {
		return s.top < o.top
	}
	return s.bottom < o.bottom
}

// ResolveSubSensor derives the sub-sensor a geometry describes. A point yields
// a profile point at its height (0 when it has none); a two-point vertical line
// yields a profile bin. Every other shape yields NoSubSensor.
func ResolveSubSensor(g *domain.Geometry) SubSensor {
	switch {
	case g.IsPoint():
		c := g.Coordinates[0]
		if c.HasZ() {
			return ProfilePoint(c.Z)
		}
		return ProfilePoint(0)
	case g.IsVerticalLine():
		return ProfileBin(g.Coordinates[0].Z, g.Coordinates[1].Z)
	default:
		return NoSubSensor
	}
}

// ResolveFeatureSubSensor returns NoSubSensor when the feature is the sensor's
// own location, otherwise resolves the feature geometry.
func ResolveFeatureSubSensor(sensorID string, f domain.Feature) SubSensor {
	if f.ID == sensorID {
		return NoSubSensor
	}
	return ResolveSubSensor(f.Geometry)
}
