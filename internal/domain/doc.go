// Package domain models geo-referenced, time-stamped sensor observations as
// they arrive from the observation source, before they are classified into
// discrete-sampling-geometry datasets.
//
// # Data Source
//
// Observations are published to the Kafka source topic as one JSON object per
// message. Each carries the producing procedure (the sensor), the observed
// property, the feature of interest, a phenomenon time, a result, and optional
// named parameters. See [DecodeObservation] for the accepted shape.
//
// # Conventions
//
// Observed properties:
//
//	A property is either a single phenomenon ("temperature") or a composite
//	("ctd") listing the component phenomena observed together. A component
//	without a unit inherits the unit declared on the result.
//
// Features of interest:
//
//	Only sampling features are understood: SamplingPoint, SamplingCurve,
//	SamplingSurface and SamplingSolid. Their geometry is optional; a sampling
//	feature without geometry contributes no position. Any other feature type
//	is rejected by the engine as ErrUnsupportedFeatureKind.
//
// Geometry:
//
//	Coordinates are ordered as the geometry's spatial reference defines them
//	(EPSG:4326 is latitude first). "srid" 0 or absent means unset; the engine
//	assigns the configured default. A missing third ordinate is stored as NaN.
//
// Results:
//
//	Quantity and Count results are single scalar numbers. Boolean, Category,
//	Text, TimeSeries and DataArray results decode but are rejected by the
//	engine as ErrUnsupportedValueKind.
//
// Parameters:
//
//	"height" (or "depth" when no height is given) is an explicit vertical
//	position. "sampling_geometry" is a more precise geometry that replaces the
//	feature geometry for dimensional purposes and for sub-sensor resolution.
//
// # Time Keys
//
// Phenomenon times are either an RFC3339 instant or a {"begin","end"} period.
// Observations with equal [TimeKey] values land in the same time bucket.
package domain
