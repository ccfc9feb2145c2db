package dsg

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// AxisOrderLookup reports whether a spatial reference orders its horizontal
// axes northing first (latitude, longitude).
type AxisOrderLookup interface {
	NorthingFirst(srid int) (bool, error)
}

// EPSGRegistry is a static AxisOrderLookup over EPSG codes.
type EPSGRegistry struct {
	northingFirst map[int]bool
}

// defaultNorthingFirst lists geographic 2-D/3-D CRSs and Gauss-Krüger zones
// whose EPSG definition puts the northing axis first.
var defaultNorthingFirst = []int{
	4326, 4258, 4269, 4283, 4167, 4979, 4937,
	31466, 31467, 31468, 31469,
}

// defaultEastingFirst lists projected CRSs that put the easting axis first.
var defaultEastingFirst = []int{3857, 900913, 3395, 4087}

// NewEPSGRegistry returns the built-in table extended with extra codes.
// Extras override built-in entries.
func NewEPSGRegistry(extraNorthingFirst, extraEastingFirst []int) *EPSGRegistry {
	r := &EPSGRegistry{northingFirst: make(map[int]bool)}
	for _, code := range defaultNorthingFirst {
		r.northingFirst[code] = true
	}
	for _, code := range defaultEastingFirst {
		r.northingFirst[code] = false
	}
	// WGS 84 / UTM north and south zones.
	for zone := 1; zone <= 60; zone++ {
		r.northingFirst[32600+zone] = false
		r.northingFirst[32700+zone] = false
	}
	// ETRS89 / UTM zones 28N-38N.
	for code := 25828; code <= 25838; code++ {
		r.northingFirst[code] = false
	}
	for _, code := range extraNorthingFirst {
		r.northingFirst[code] = true
	}
	for _, code := range extraEastingFirst {
		r.northingFirst[code] = false
	}
	return r
}

// NorthingFirst implements AxisOrderLookup.
func (r *EPSGRegistry) NorthingFirst(srid int) (bool, error) {
	if srid <= 0 {
		return false, fmt.Errorf("%w: invalid srid %d", domain.ErrUnknownCRS, srid)
	}
	northing, ok := r.northingFirst[srid]
	if !ok {
		return false, fmt.Errorf("%w: EPSG:%d has no registered axis order", domain.ErrUnknownCRS, srid)
	}
	return northing, nil
}

// ChainLookup asks each lookup in turn. A lookup failing with
// domain.ErrUnknownCRS hands the code to the next one; any other error ends
// the chain.
type ChainLookup []AxisOrderLookup

// NorthingFirst implements AxisOrderLookup.
func (c ChainLookup) NorthingFirst(srid int) (bool, error) {
	err := fmt.Errorf("%w: EPSG:%d", domain.ErrUnknownCRS, srid)
	for _, l := range c {
		var northing bool
		northing, err = l.NorthingFirst(srid)
		if err == nil {
			return northing, nil
		}
		if !errors.Is(err, domain.ErrUnknownCRS) {
			return false, err
		}
	}
	return false, err
}
