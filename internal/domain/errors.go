package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the classification engine. None of them is recovered
// inside the engine; callers match them with errors.Is.
var (
	ErrUnsupportedFeatureKind = errors.New("unsupported feature kind")
	ErrUnsupportedValueKind   = errors.New("unsupported value kind")
	ErrGeometryNormalization  = errors.New("geometry normalization failed")
	ErrResourceExhausted      = errors.New("resource exhausted")
	ErrUnknownCRS             = errors.New("unknown coordinate reference system")
)

// ObservationError ties a failure to the observation that caused it.
type ObservationError struct {
	Index         int
	ObservationID string
	SensorID      string
	Err           error
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("observation %d (id=%q sensor=%q): %v", e.Index, e.ObservationID, e.SensorID, e.Err)
}

func (e *ObservationError) Unwrap() error {
	return e.Err
}
