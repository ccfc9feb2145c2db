// Package dsg classifies sensor observations into CF discrete-sampling-geometry
// datasets.
//
// A run indexes observations per sensor (time → phenomenon → sub-sensor →
// value), collects each sensor's distinct longitudes, latitudes and heights,
// decides one feature type per sensor from how those vary, and merges the
// sensors of each type into a Dataset with a common time span, phenomenon set
// and envelope:
//
//	location fixed, height fixed    → timeSeries
//	location fixed, height varies   → timeSeriesProfile
//	location varies, height fixed   → trajectory
//	location varies, height varies  → trajectoryProfile
//
// Geometries are brought into the canonical axis order before any position is
// read. Errors abort the run; see the error kinds in package domain.
package dsg
