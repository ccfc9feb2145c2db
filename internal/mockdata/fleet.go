// Package mockdata builds a deterministic synthetic sensor fleet with one
// sensor per feature type plus composite and sampling-geometry cases. Tests,
// cmd/genmock and the integration suite share it.
package mockdata

import (
	"fmt"
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
)

// DefaultStart is the first phenomenon time of the fleet.
var DefaultStart = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

// Sensor identifiers.
const (
	StationID  = "urn:dsg:station:north-pier"
	ProfilerID = "urn:dsg:profiler:thermistor-chain"
	ADCPID     = "urn:dsg:adcp:harbour-mouth"
	ShipID     = "urn:dsg:ship:rv-heincke"
	GliderID   = "urn:dsg:glider:seaglider-7"
)

// ExpectedFeatureTypes maps each fleet sensor to the feature type the engine
// must decide for it.
var ExpectedFeatureTypes = map[string]dsg.FeatureType{
	StationID:  dsg.TimeSeries,
	ProfilerID: dsg.TimeSeriesProfile,
	ADCPID:     dsg.TimeSeriesProfile,
	ShipID:     dsg.Trajectory,
	GliderID:   dsg.TrajectoryProfile,
}

// Options controls fleet generation.
type Options struct {
	Start    time.Time
	Steps    int           // time steps per sensor, at least 2
	Interval time.Duration // spacing between steps
}

func (o Options) withDefaults() Options {
	if o.Start.IsZero() {
		o.Start = DefaultStart
	}
	if o.Steps < 2 {
		o.Steps = 2
	}
	if o.Interval <= 0 {
		o.Interval = 10 * time.Minute
	}
	return o
}

var (
	profilerDepths = []float64{1, 5, 10}
	adcpBins       = [][2]float64{{0, 2}, {2, 4}, {4, 6}}
)

// Fleet returns the observations of every fleet sensor, ordered by time step.
// Feature geometries use EPSG:4326, latitude first.
func Fleet(opts Options) []domain.Observation {
	opts = opts.withDefaults()

	var out []domain.Observation
	for step := 0; step < opts.Steps; step++ {
		t := domain.Instant(opts.Start.Add(time.Duration(step) * opts.Interval))
		out = append(out, station(step, t))
		out = append(out, profiler(step, t)...)
		out = append(out, adcp(step, t)...)
		out = append(out, ship(step, t))
		out = append(out, glider(step, t)...)
	}
	return out
}

func quantity(sensor, id string, step int, phen domain.Phenomenon, t domain.Time, v float64, unit string) domain.Observation {
	return domain.Observation{
		ID:        fmt.Sprintf("%s/%d/%s", id, step, phen.ID),
		Procedure: domain.Procedure{ID: sensor, Name: id},
		Property:  domain.ObservableProperty{Phenomenon: phen},
		Time:      t,
		Value:     domain.Value{Kind: domain.ValueQuantity, Number: v, Unit: unit},
	}
}

func samplingPoint(id string, geom *domain.Geometry) domain.Feature {
	return domain.Feature{ID: id, Kind: domain.FeatureSamplingPoint, Geometry: geom}
}

func station(step int, t domain.Time) domain.Observation {
	o := quantity(StationID, "north-pier", step,
		domain.Phenomenon{ID: "air_temperature", Unit: "degC"}, t, 11.5+0.1*float64(step), "degC")
	o.Feature = samplingPoint("foi:north-pier", domain.NewPoint(4326, domain.XY(54.18, 7.89)))
	return o
}

func profiler(step int, t domain.Time) []domain.Observation {
	out := make([]domain.Observation, 0, len(profilerDepths))
	for _, d := range profilerDepths {
		depth := d
		o := quantity(ProfilerID, "thermistor-chain", step,
			domain.Phenomenon{ID: "sea_water_temperature", Unit: "degC"}, t, 9-0.2*depth, "degC")
		o.ID = fmt.Sprintf("%s/%g", o.ID, depth)
		o.Feature = samplingPoint(fmt.Sprintf("foi:thermistor-chain:%gm", depth),
			domain.NewPoint(4326, domain.XYZ(54.02, 7.51, depth)))
		o.Parameters.HeightDepth = &depth
		out = append(out, o)
	}
	return out
}

func adcp(step int, t domain.Time) []domain.Observation {
	out := make([]domain.Observation, 0, len(adcpBins))
	for i, b := range adcpBins {
		o := quantity(ADCPID, "harbour-mouth", step,
			domain.Phenomenon{ID: "sea_water_speed", Unit: "m s-1"}, t, 0.3+0.05*float64(i), "m s-1")
		o.ID = fmt.Sprintf("%s/bin%d", o.ID, i)
		o.Feature = samplingPoint(ADCPID, domain.NewPoint(4326, domain.XY(53.87, 8.70)))
		o.Parameters.SamplingGeometry = domain.NewLineString(4326,
			domain.XYZ(53.87, 8.70, b[0]), domain.XYZ(53.87, 8.70, b[1]))
		out = append(out, o)
	}
	return out
}

func ship(step int, t domain.Time) domain.Observation {
	lat := 54.10 + 0.02*float64(step)
	lon := 7.60 + 0.05*float64(step)
	o := quantity(ShipID, "rv-heincke", step,
		domain.Phenomenon{ID: "sea_water_salinity", Unit: "PSU"}, t, 32.1+0.01*float64(step), "PSU")
	o.Feature = samplingPoint(fmt.Sprintf("foi:rv-heincke:track:%d", step),
		domain.NewPoint(4326, domain.XY(lat, lon)))
	zero := 0.0
	o.Parameters.HeightDepth = &zero
	return o
}

// glider reports its own position as plain phenomena and its water sample as
// a composite "ctd" property. Its feature is the glider itself, without geometry.
func glider(step int, t domain.Time) []domain.Observation {
	self := domain.Feature{ID: GliderID, Kind: domain.FeatureSamplingPoint}
	pos := []struct {
		phen string
		unit string
		v    float64
	}{
		{phen: "longitude", unit: "degree_east", v: 8.10 + 0.01*float64(step)},
		{phen: "latitude", unit: "degree_north", v: 54.30 - 0.01*float64(step)},
		{phen: "depth", unit: "m", v: float64(20 * (step % 3))},
	}

	out := make([]domain.Observation, 0, len(pos)+1)
	for _, p := range pos {
		o := quantity(GliderID, "seaglider-7", step, domain.Phenomenon{ID: p.phen, Unit: p.unit}, t, p.v, p.unit)
		o.Feature = self
		out = append(out, o)
	}

	ctd := quantity(GliderID, "seaglider-7", step, domain.Phenomenon{ID: "ctd"}, t, 1, "")
	ctd.Property.Components = []domain.Phenomenon{
		{ID: "sea_water_temperature", Unit: "degC"},
		{ID: "sea_water_salinity", Unit: "PSU"},
	}
	ctd.Feature = self
	return append(out, ctd)
}

// Rejects returns observations that decode but that the engine refuses: one
// non-sampling feature and one non-scalar result.
func Rejects(start time.Time) []domain.Observation {
	if start.IsZero() {
		start = DefaultStart
	}
	t := domain.Instant(start)

	station := quantity("urn:dsg:rejects:station", "reject-station", 0,
		domain.Phenomenon{ID: "air_temperature", Unit: "degC"}, t, 12, "degC")
	station.Feature = domain.Feature{ID: "foi:plain", Kind: "Station",
		Geometry: domain.NewPoint(4326, domain.XY(54, 8))}

	text := quantity("urn:dsg:rejects:observer", "reject-observer", 0,
		domain.Phenomenon{ID: "sea_state"}, t, 0, "")
	text.Value = domain.Value{Kind: domain.ValueText}
	text.Feature = samplingPoint("foi:observer", domain.NewPoint(4326, domain.XY(54, 8)))

	return []domain.Observation{station, text}
}
