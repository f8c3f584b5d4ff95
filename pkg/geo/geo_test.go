package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanarDistance(t *testing.T) {
	assert.Equal(t, 5.0, PlanarDistance(NewCoordinate(0, 0), NewCoordinate(3, 4)))
	assert.Equal(t, 0.0, PlanarDistance(NewCoordinate(51, 13), NewCoordinate(51, 13)))
}

func TestCalculateHaversineDistance(t *testing.T) {
	// one degree of latitude
	assert.InDelta(t, 111.19, CalculateHaversineDistance(51, 13, 52, 13), 0.01)
	assert.InDelta(t, 0.0, CalculateHaversineDistance(51.05, 13.73, 51.05, 13.73), 1e-12)
}

func TestGetDestinationPoint(t *testing.T) {
	tests := []struct {
		name    string
		bearing float64
	}{
		{"north", 0},
		{"east", 90},
		{"south", 180},
		{"west", 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := GetDestinationPoint(51.05, 13.73, tt.bearing, 2)
			assert.InDelta(t, 2.0, CalculateHaversineDistance(51.05, 13.73, lat, lon), 1e-6)
		})
	}

	lat, lon := GetDestinationPoint(51.05, 13.73, 0, 2)
	assert.Greater(t, lat, 51.05)
	assert.InDelta(t, 13.73, lon, 1e-9)
}

func TestToEPSG3857(t *testing.T) {
	x, y := ToEPSG3857(0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = ToEPSG3857(0, 180)
	assert.InDelta(t, webMercatorOriginShift, x, 1e-6)

	x, y = ToEPSG3857(51.05, 13.73)
	assert.InDelta(t, 1528416.6, x, 1)
	assert.InDelta(t, 6630142.9, y, 1)
}

func TestPolyline(t *testing.T) {
	path := []Coordinate{NewCoordinate(38.5, -120.2), NewCoordinate(40.7, -120.95), NewCoordinate(43.252, -126.453)}
	encoded := PolylineFromCoords(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := CoordsFromPolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-9)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-9)
	}
}

func TestPointPolylineDistance(t *testing.T) {
	path := []Coordinate{NewCoordinate(51.0, 13.0), NewCoordinate(51.0, 13.1)}

	t.Run("on the line", func(t *testing.T) {
		// the great circle arc bulges ~1 m north of the parallel
		assert.InDelta(t, 0.0, PointPolylineDistance(path, NewCoordinate(51.0, 13.05)), 2)
	})
	t.Run("north of the line", func(t *testing.T) {
		// 0.001 degree of latitude
		assert.InDelta(t, 111.19, PointPolylineDistance(path, NewCoordinate(51.001, 13.05)), 2)
	})
	t.Run("single vertex", func(t *testing.T) {
		d := PointPolylineDistance(path[:1], NewCoordinate(51.001, 13.0))
		assert.InDelta(t, 111.19, d, 0.1)
	})
	t.Run("empty path", func(t *testing.T) {
		assert.Equal(t, 0.0, PointPolylineDistance(nil, NewCoordinate(51, 13)))
	})
}
