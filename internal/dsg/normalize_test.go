package dsg

import (
	"errors"
	"testing"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAxisOrder(t *testing.T) {
	o, err := ParseAxisOrder("LonLat")
	require.NoError(t, err)
	assert.Equal(t, AxisOrderLonLat, o)

	o, err = ParseAxisOrder(" latlon ")
	require.NoError(t, err)
	assert.Equal(t, AxisOrderLatLon, o)
	assert.Equal(t, "latlon", o.String())

	_, err = ParseAxisOrder("xy")
	assert.Error(t, err)
}

func TestEPSGRegistry(t *testing.T) {
	r := NewEPSGRegistry([]int{2180}, []int{4326})

	tests := []struct {
		srid     int
		northing bool
	}{
		{srid: 4258, northing: true},
		{srid: 4937, northing: true},
		{srid: 31467, northing: true},
		{srid: 3857, northing: false},
		{srid: 32632, northing: false},
		{srid: 32755, northing: false},
		{srid: 25832, northing: false},
		{srid: 2180, northing: true},  // extra
		{srid: 4326, northing: false}, // extra overrides built-in
	}
	for _, tt := range tests {
		got, err := r.NorthingFirst(tt.srid)
		require.NoError(t, err, "EPSG:%d", tt.srid)
		assert.Equal(t, tt.northing, got, "EPSG:%d", tt.srid)
	}

	_, err := r.NorthingFirst(99999)
	require.ErrorIs(t, err, domain.ErrUnknownCRS)

	// Geocentric X/Y/Z has no horizontal axis order.
	_, err = r.NorthingFirst(4936)
	require.ErrorIs(t, err, domain.ErrUnknownCRS)

	_, err = r.NorthingFirst(0)
	require.ErrorIs(t, err, domain.ErrUnknownCRS)
}

func TestGeometryNormalizer_Normalize(t *testing.T) {
	registry := NewEPSGRegistry(nil, nil)

	t.Run("nil geometry", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLonLat, 4326, registry)
		g, err := n.Normalize(nil)
		require.NoError(t, err)
		assert.Nil(t, g)
	})

	t.Run("northing-first source swapped into lon/lat", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLonLat, 4326, registry)
		in := domain.NewPoint(4326, domain.XYZ(50, 10, 3))

		out, err := n.Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, 10.0, out.Coordinates[0].X)
		assert.Equal(t, 50.0, out.Coordinates[0].Y)
		assert.Equal(t, 3.0, out.Coordinates[0].Z)
		assert.Equal(t, 50.0, in.Coordinates[0].X, "input must not be modified")

		lon, lat := n.LonLat(out.Coordinates[0])
		assert.Equal(t, 10.0, lon)
		assert.Equal(t, 50.0, lat)
	})

	t.Run("unset srid gets the default", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLonLat, 4326, registry)
		out, err := n.Normalize(domain.NewLineString(0, domain.XY(50, 10), domain.XY(51, 11)))
		require.NoError(t, err)
		assert.Equal(t, 4326, out.SRID)
		assert.Equal(t, domain.XY(10, 50).X, out.Coordinates[0].X)
		assert.Equal(t, 11.0, out.Coordinates[1].X)
	})

	t.Run("easting-first source left alone", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLonLat, 4326, registry)
		out, err := n.Normalize(domain.NewPoint(3857, domain.XY(1113194.9, 6446275.8)))
		require.NoError(t, err)
		assert.Equal(t, 1113194.9, out.Coordinates[0].X)
	})

	t.Run("lat/lon canonical order", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLatLon, 4326, registry)

		same, err := n.Normalize(domain.NewPoint(4326, domain.XY(50, 10)))
		require.NoError(t, err)
		assert.Equal(t, 50.0, same.Coordinates[0].X)

		swapped, err := n.Normalize(domain.NewPoint(3857, domain.XY(1, 2)))
		require.NoError(t, err)
		assert.Equal(t, 2.0, swapped.Coordinates[0].X)

		lon, lat := n.LonLat(same.Coordinates[0])
		assert.Equal(t, 10.0, lon)
		assert.Equal(t, 50.0, lat)
		assert.Equal(t, orb.Point{10, 50}, n.Position(same.Coordinates[0]))
	})

	t.Run("unknown reference fails", func(t *testing.T) {
		n := NewGeometryNormalizer(AxisOrderLonLat, 4326, registry)
		_, err := n.Normalize(domain.NewPoint(99999, domain.XY(1, 2)))
		require.ErrorIs(t, err, domain.ErrGeometryNormalization)
		assert.ErrorIs(t, err, domain.ErrUnknownCRS)
	})
}

type stubLookup map[int]bool

func (s stubLookup) NorthingFirst(srid int) (bool, error) {
	v, ok := s[srid]
	if !ok {
		return false, domain.ErrUnknownCRS
	}
	return v, nil
}

type failingLookup struct{ err error }

func (f failingLookup) NorthingFirst(int) (bool, error) { return false, f.err }

func TestChainLookup(t *testing.T) {
	chain := ChainLookup{NewEPSGRegistry(nil, nil), stubLookup{2056: false, 4326: false}}

	northing, err := chain.NorthingFirst(4326)
	require.NoError(t, err)
	assert.True(t, northing, "first lookup wins")

	northing, err = chain.NorthingFirst(2056)
	require.NoError(t, err)
	assert.False(t, northing, "unknown codes fall through")

	_, err = chain.NorthingFirst(99999)
	assert.ErrorIs(t, err, domain.ErrUnknownCRS)

	_, err = ChainLookup{}.NorthingFirst(4326)
	assert.ErrorIs(t, err, domain.ErrUnknownCRS)
}

func TestChainLookup_StopsOnOtherErrors(t *testing.T) {
	boom := errors.New("resolver down")
	chain := ChainLookup{failingLookup{err: boom}, stubLookup{2056: false}}

	_, err := chain.NorthingFirst(2056)
	assert.ErrorIs(t, err, boom)
}
