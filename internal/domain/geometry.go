package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// GeometryType names the shapes the wire format can carry.
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryMultiPoint GeometryType = "MultiPoint"
	GeometryPolygon    GeometryType = "Polygon"
)

// Coordinate is a position in the axis order of its geometry's spatial
// reference. Z is NaN when the position carries no vertical component.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// XY builds a two-dimensional coordinate.
func XY(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: math.NaN()}
}

// XYZ builds a coordinate with a vertical component.
func XYZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z}
}

// HasZ reports whether the vertical component is present and not NaN.
func (c Coordinate) HasZ() bool {
	return !math.IsNaN(c.Z)
}

// Horizontal drops the vertical component.
func (c Coordinate) Horizontal() orb.Point {
	return orb.Point{c.X, c.Y}
}

// Swapped returns the coordinate with X and Y exchanged.
func (c Coordinate) Swapped() Coordinate {
	return Coordinate{X: c.Y, Y: c.X, Z: c.Z}
}

// Geometry is a simple feature geometry. Polygons carry their exterior ring only.
// SRID 0 means the spatial reference is unset.
type Geometry struct {
	Type        GeometryType
	SRID        int
	Coordinates []Coordinate
}

// NewPoint builds a point geometry.
func NewPoint(srid int, c Coordinate) *Geometry {
	return &Geometry{Type: GeometryPoint, SRID: srid, Coordinates: []Coordinate{c}}
}

// NewLineString builds a line geometry.
func NewLineString(srid int, coords ...Coordinate) *Geometry {
	return &Geometry{Type: GeometryLineString, SRID: srid, Coordinates: coords}
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	coords := make([]Coordinate, len(g.Coordinates))
	copy(coords, g.Coordinates)
	return &Geometry{Type: g.Type, SRID: g.SRID, Coordinates: coords}
}

// IsPoint reports whether g is a single point.
func (g *Geometry) IsPoint() bool {
	return g != nil && g.Type == GeometryPoint && len(g.Coordinates) == 1
}

// IsVerticalLine reports whether g is a two-point line whose endpoints share a
// horizontal position and both carry a vertical component.
func (g *Geometry) IsVerticalLine() bool {
	if g == nil || g.Type != GeometryLineString || len(g.Coordinates) != 2 {
		return false
	}
	a, b := g.Coordinates[0], g.Coordinates[1]
	return a.X == b.X && a.Y == b.Y && a.HasZ() && b.HasZ()
}

// Heights returns every defined vertical component in coordinate order.
func (g *Geometry) Heights() []float64 {
	if g == nil {
		return nil
	}
	var out []float64
	for _, c := range g.Coordinates {
		if c.HasZ() {
			out = append(out, c.Z)
		}
	}
	return out
}
