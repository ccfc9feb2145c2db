package dsg

// FeatureType is the CF discrete-sampling-geometry type a sensor is exported as.
type FeatureType int

const (
	TimeSeries FeatureType = iota
	TimeSeriesProfile
	Trajectory
	TrajectoryProfile
)

// FeatureTypes lists every feature type in output order.
var FeatureTypes = []FeatureType{TimeSeries, TimeSeriesProfile, Trajectory, TrajectoryProfile}

func (f FeatureType) String() string {
	switch f {
	case TimeSeries:
		return "timeSeries"
	case TimeSeriesProfile:
		return "timeSeriesProfile"
	case Trajectory:
		return "trajectory"
	case TrajectoryProfile:
		return "trajectoryProfile"
	default:
		return "unknown"
	}
}

// MarshalText renders the CF feature type tag.
func (f FeatureType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Classification is the decision for one sensor together with the positions
// that stay fixed across all of its observations.
type Classification struct {
	FeatureType FeatureType
	Longitude   *float64
	Latitude    *float64
	Height      *float64
}

// LocationVaries reports whether the sensor moves horizontally.
func (c Classification) LocationVaries() bool {
	return c.FeatureType == Trajectory || c.FeatureType == TrajectoryProfile
}

// Classify decides a sensor's feature type from its distinct positions.
// Location varies when both horizontal sets are non-empty and either has more
// than one member; height varies when the height set has more than one member.
func Classify(acc *SensorAccumulator) Classification {
	nLon, nLat := acc.Longitudes.Len(), acc.Latitudes.Len()
	locVaries := nLon > 0 && nLat > 0 && (nLon > 1 || nLat > 1)
	heightVaries := acc.Heights.Len() > 1

	var c Classification
	switch {
	case !locVaries && !heightVaries:
		c.FeatureType = TimeSeries
	case !locVaries && heightVaries:
		c.FeatureType = TimeSeriesProfile
	case locVaries && !heightVaries:
		c.FeatureType = Trajectory
	default:
		c.FeatureType = TrajectoryProfile
	}

	if !locVaries {
		c.Longitude = soleOf(acc.Longitudes)
		c.Latitude = soleOf(acc.Latitudes)
	}
	if !heightVaries {
		c.Height = soleOf(acc.Heights)
	}
	return c
}

func soleOf(s FloatSet) *float64 {
	v, ok := s.Sole()
	if !ok {
		return nil
	}
	return &v
}
