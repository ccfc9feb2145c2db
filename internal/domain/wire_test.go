package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSensorID = "urn:ogc:object:sensor:ctd-1"
	testFeature  = "foi-north-pier"
)

func TestDecodeObservation(t *testing.T) {
	t.Run("single quantity at a point", func(t *testing.T) {
		data := []byte(`{
			"id": "obs-1",
			"procedure": {"id": "` + testSensorID + `", "name": "CTD 1"},
			"observed_property": {"id": "temperature", "unit": "degC"},
			"feature": {"id": "` + testFeature + `", "type": "SamplingPoint",
				"geometry": {"type": "Point", "srid": 4326, "coordinates": [50.0, 10.0]}},
			"phenomenon_time": "2024-04-26T15:10:00Z",
			"result": {"type": "Quantity", "value": 12.5, "unit": "degC"}
		}`)

		obs, err := DecodeObservation(data)
		require.NoError(t, err)

		assert.Equal(t, "obs-1", obs.ID)
		assert.Equal(t, testSensorID, obs.SensorID())
		assert.Equal(t, "CTD 1", obs.Procedure.Name)
		assert.False(t, obs.Property.IsComposite())
		assert.Equal(t, Phenomenon{ID: "temperature", Unit: "degC"}, obs.Property.Phenomenon)
		assert.Equal(t, testFeature, obs.Feature.ID)
		assert.Equal(t, FeatureSamplingPoint, obs.Feature.Kind)
		require.True(t, obs.Feature.Geometry.IsPoint())
		assert.Equal(t, 4326, obs.Feature.Geometry.SRID)
		assert.Equal(t, 50.0, obs.Feature.Geometry.Coordinates[0].X)
		assert.Equal(t, 10.0, obs.Feature.Geometry.Coordinates[0].Y)
		assert.False(t, obs.Feature.Geometry.Coordinates[0].HasZ())
		assert.True(t, obs.Time.IsInstant())
		assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), obs.Time.Begin)
		assert.Equal(t, ValueQuantity, obs.Value.Kind)
		assert.Equal(t, 12.5, obs.Value.Number)
		assert.Nil(t, obs.Parameters.HeightDepth)
	})

	t.Run("composite property with period and parameters", func(t *testing.T) {
		data := []byte(`{
			"procedure": {"id": "glider-7"},
			"observed_property": {"id": "ctd", "components": [{"id": "temperature", "unit": "degC"}, {"id": "salinity"}]},
			"feature": {"id": "track", "type": "SamplingCurve"},
			"phenomenon_time": {"begin": "2024-04-26T15:00:00Z", "end": "2024-04-26T15:10:00Z"},
			"result": {"type": "Count", "value": 3},
			"parameters": {"depth": 12.0, "sampling_geometry": {"type": "LineString", "coordinates": [[1, 2, 0], [1, 2, 10]]}}
		}`)

		obs, err := DecodeObservation(data)
		require.NoError(t, err)

		assert.True(t, obs.Property.IsComposite())
		assert.Len(t, obs.Property.Components, 2)
		assert.False(t, obs.Time.IsInstant())
		assert.Equal(t, 10*time.Minute, obs.Time.End.Sub(obs.Time.Begin))
		assert.Equal(t, ValueCount, obs.Value.Kind)
		assert.Equal(t, 3.0, obs.Value.Number)
		require.NotNil(t, obs.Parameters.HeightDepth)
		assert.Equal(t, 12.0, *obs.Parameters.HeightDepth)
		require.NotNil(t, obs.Parameters.SamplingGeometry)
		assert.True(t, obs.Parameters.SamplingGeometry.IsVerticalLine())
		assert.Nil(t, obs.Feature.Geometry)
	})

	t.Run("height wins over depth", func(t *testing.T) {
		data := []byte(`{"procedure": {"id": "s"}, "observed_property": {"id": "p"},
			"phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1},
			"parameters": {"height": 3.0, "depth": 7.0}}`)

		obs, err := DecodeObservation(data)
		require.NoError(t, err)
		require.NotNil(t, obs.Parameters.HeightDepth)
		assert.Equal(t, 3.0, *obs.Parameters.HeightDepth)
	})

	t.Run("polygon keeps the exterior ring", func(t *testing.T) {
		data := []byte(`{"procedure": {"id": "s"}, "observed_property": {"id": "p"},
			"feature": {"type": "SamplingSurface", "geometry": {"type": "Polygon",
				"coordinates": [[[0,0],[0,1],[1,1],[0,0]], [[0.2,0.2],[0.2,0.3],[0.3,0.3],[0.2,0.2]]]}},
			"phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1}}`)

		obs, err := DecodeObservation(data)
		require.NoError(t, err)
		assert.Len(t, obs.Feature.Geometry.Coordinates, 4)
	})

	t.Run("non-numeric result decodes without a number", func(t *testing.T) {
		data := []byte(`{"procedure": {"id": "s"}, "observed_property": {"id": "p"},
			"phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Text", "value": "calm"}}`)

		obs, err := DecodeObservation(data)
		require.NoError(t, err)
		assert.Equal(t, ValueText, obs.Value.Kind)
		assert.False(t, obs.Value.Kind.IsScalarNumeric())
	})
}

func TestDecodeObservation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "invalid json", payload: `not json`, want: "parse observation"},
		{name: "missing procedure", payload: `{"observed_property": {"id": "p"}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1}}`, want: "procedure id"},
		{name: "missing property", payload: `{"procedure": {"id": "s"}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1}}`, want: "observed property"},
		{name: "missing time", payload: `{"procedure": {"id": "s"}, "observed_property": {"id": "p"}, "result": {"type": "Quantity", "value": 1}}`, want: "phenomenon time"},
		{name: "missing result type", payload: `{"procedure": {"id": "s"}, "observed_property": {"id": "p"}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {}}`, want: "result type"},
		{name: "quantity without value", payload: `{"procedure": {"id": "s"}, "observed_property": {"id": "p"}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity"}}`, want: "without value"},
		{name: "unknown geometry", payload: `{"procedure": {"id": "s"}, "observed_property": {"id": "p"}, "feature": {"type": "SamplingPoint", "geometry": {"type": "Circle", "coordinates": [0, 0]}}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1}}`, want: "unknown geometry type"},
		{name: "one ordinate", payload: `{"procedure": {"id": "s"}, "observed_property": {"id": "p"}, "feature": {"type": "SamplingPoint", "geometry": {"type": "Point", "coordinates": [0]}}, "phenomenon_time": "2024-04-26T15:10:00Z", "result": {"type": "Quantity", "value": 1}}`, want: "1 ordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeObservation([]byte(tt.payload))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncodeObservation_DecodesBack(t *testing.T) {
	height := 4.5
	obs := Observation{
		ID:        "obs-9",
		Procedure: Procedure{ID: testSensorID},
		Property: ObservableProperty{
			Phenomenon: Phenomenon{ID: "ctd"},
			Components: []Phenomenon{{ID: "temperature", Unit: "degC"}, {ID: "salinity"}},
		},
		Feature: Feature{
			ID:       testFeature,
			Kind:     FeatureSamplingPoint,
			Geometry: NewPoint(4326, XYZ(50, 10, -2)),
		},
		Time:  Period(time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC), time.Date(2024, 4, 26, 16, 0, 0, 0, time.UTC)),
		Value: Value{Kind: ValueQuantity, Number: 7.25, Unit: "degC"},
		Parameters: Parameters{
			HeightDepth:      &height,
			SamplingGeometry: NewLineString(0, XYZ(1, 2, 0), XYZ(1, 2, 10)),
		},
	}

	data, err := EncodeObservation(obs)
	require.NoError(t, err)

	got, err := DecodeObservation(data)
	require.NoError(t, err)

	assert.Equal(t, obs.ID, got.ID)
	assert.Equal(t, obs.Property.Components, got.Property.Components)
	assert.Equal(t, obs.Time.Key(), got.Time.Key())
	assert.Equal(t, obs.Value, got.Value)
	assert.Equal(t, -2.0, got.Feature.Geometry.Coordinates[0].Z)
	assert.Equal(t, height, *got.Parameters.HeightDepth)
	assert.Equal(t, []float64{0, 10}, got.Parameters.SamplingGeometry.Heights())
}

func TestGeometry_IsVerticalLine(t *testing.T) {
	tests := []struct {
		name string
		geom *Geometry
		want bool
	}{
		{name: "nil", geom: nil, want: false},
		{name: "point", geom: NewPoint(0, XYZ(1, 1, 1)), want: false},
		{name: "vertical", geom: NewLineString(0, XYZ(1, 1, 0), XYZ(1, 1, 5)), want: true},
		{name: "slanted", geom: NewLineString(0, XYZ(1, 1, 0), XYZ(2, 1, 5)), want: false},
		{name: "missing z", geom: NewLineString(0, XYZ(1, 1, 0), XY(1, 1)), want: false},
		{name: "nan z", geom: NewLineString(0, XYZ(1, 1, math.NaN()), XYZ(1, 1, 2)), want: false},
		{name: "three points", geom: NewLineString(0, XYZ(1, 1, 0), XYZ(1, 1, 1), XYZ(1, 1, 2)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.geom.IsVerticalLine())
		})
	}
}

func TestTimeKey_Ordering(t *testing.T) {
	base := time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
	a := Instant(base).Key()
	b := Period(base, base.Add(time.Hour)).Key()
	c := Instant(base.Add(time.Minute)).Key()

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))

	local := base.In(time.FixedZone("CEST", 2*3600))
	assert.Equal(t, a, Instant(local).Key(), "time keys ignore the zone")
}
