package dsg

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/paulmach/orb"
)

// AxisOrder is the horizontal axis order geometries are stored in.
type AxisOrder int

const (
	// AxisOrderLonLat stores easting (longitude) first.
	AxisOrderLonLat AxisOrder = iota
	// AxisOrderLatLon stores northing (latitude) first.
	AxisOrderLatLon
)

// ParseAxisOrder accepts "lonlat" or "latlon" in any case.
func ParseAxisOrder(s string) (AxisOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lonlat":
		return AxisOrderLonLat, nil
	case "latlon":
		return AxisOrderLatLon, nil
	default:
		return 0, fmt.Errorf("unknown axis order %q", s)
	}
}

func (o AxisOrder) String() string {
	if o == AxisOrderLatLon {
		return "latlon"
	}
	return "lonlat"
}

// GeometryNormalizer rewrites geometries into the canonical axis order and
// assigns the default spatial reference to geometries that have none.
type GeometryNormalizer struct {
	canonical   AxisOrder
	defaultSRID int
	lookup      AxisOrderLookup
}

// NewGeometryNormalizer creates a normalizer.
func NewGeometryNormalizer(canonical AxisOrder, defaultSRID int, lookup AxisOrderLookup) *GeometryNormalizer {
	return &GeometryNormalizer{
		canonical:   canonical,
		defaultSRID: defaultSRID,
		lookup:      lookup,
	}
}

// Normalize returns a corrected copy of g; the input is never modified.
// A nil geometry normalizes to nil. Lookup failures wrap
// domain.ErrGeometryNormalization.
func (n *GeometryNormalizer) Normalize(g *domain.Geometry) (*domain.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	out := g.Clone()
	if out.SRID == 0 {
		out.SRID = n.defaultSRID
	}

	northingFirst, err := n.lookup.NorthingFirst(out.SRID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeometryNormalization, err)
	}

	if northingFirst != (n.canonical == AxisOrderLatLon) {
		for i, c := range out.Coordinates {
			out.Coordinates[i] = c.Swapped()
		}
	}
	return out, nil
}

// Position reads the horizontal position of a normalized coordinate as a
// longitude/latitude point.
func (n *GeometryNormalizer) Position(c domain.Coordinate) orb.Point {
	p := c.Horizontal()
	if n.canonical == AxisOrderLatLon {
		return orb.Point{p[1], p[0]}
	}
	return p
}

// LonLat reads the horizontal position of a normalized coordinate.
func (n *GeometryNormalizer) LonLat(c domain.Coordinate) (lon, lat float64) {
	p := n.Position(c)
	return p.Lon(), p.Lat()
}
