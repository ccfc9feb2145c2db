package dsg

import (
	"github.com/couchcryptid/storm-data-dsg/internal/config"
)

// OptionsFromConfig builds the axis classifier and geometry normalizer from
// the spatial configuration. Codes missing from the EPSG registry are passed
// to the fallback lookups in order. Guard, GuardInterval and Logger are left
// for the caller.
func OptionsFromConfig(s config.Spatial, fallback ...AxisOrderLookup) (Options, error) {
	order, err := ParseAxisOrder(s.AxisOrder)
	if err != nil {
		return Options{}, err
	}

	var lookup AxisOrderLookup = NewEPSGRegistry(s.NorthingFirstSRIDs, s.EastingFirstSRIDs)
	if len(fallback) > 0 {
		lookup = append(ChainLookup{lookup}, fallback...)
	}
	return Options{
		Axes:       NewAxisClassifier(s.LongitudePhenomena, s.LatitudePhenomena, s.VerticalPhenomena),
		Normalizer: NewGeometryNormalizer(order, s.DefaultSRID, lookup),
	}, nil
}
