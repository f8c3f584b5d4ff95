package geo

import (
	"github.com/golang/geo/s2"
)

func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// return in meter
func PointLinePerpendicularDistance(pointA Coordinate, pointB Coordinate,
	snap Coordinate) float64 {
	projectionPoint := ProjectPointToLineCoord(pointA, pointB, snap)

	dist := CalculateHaversineDistance(snap.GetLat(), snap.GetLon(), projectionPoint.GetLat(), projectionPoint.GetLon())

	return dist * 1000
}

// PointPolylineDistance. smallest perpendicular distance (meter) from p to any segment of path.
// A single vertex path degrades to the haversine distance to that vertex.
func PointPolylineDistance(path []Coordinate, p Coordinate) float64 {
	if len(path) == 0 {
		return 0
	}
	if len(path) == 1 {
		return CalculateHaversineDistance(p.Lat, p.Lon, path[0].Lat, path[0].Lon) * 1000
	}

	best := -1.0
	for i := 0; i+1 < len(path); i++ {
		d := PointLinePerpendicularDistance(path[i], path[i+1], p)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
