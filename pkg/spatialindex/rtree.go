package spatialindex

import (
	"math"
	"sort"

	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// VertexIndex. r-tree over the vertices of one geometry segment, keyed by vertex index.
type VertexIndex struct {
	tr     *rtree.RTreeG[int]
	coords []geo.Coordinate
}

func NewVertexIndex(segment []geo.Coordinate) *VertexIndex {
	var tr rtree.RTreeG[int]
	for i, c := range segment {
		p := [2]float64{c.Lon, c.Lat}
		tr.Insert(p, p, i)
	}
	return &VertexIndex{
		tr:     &tr,
		coords: segment,
	}
}

func (vi *VertexIndex) Len() int {
	return len(vi.coords)
}

// Nearest. index of the vertex closest to q by planar distance on lat/lon, and that
// distance. Equally distant vertices resolve to the lowest index. -1 for an empty index.
func (vi *VertexIndex) Nearest(q geo.Coordinate) (int, float64) {
	target := [2]float64{q.Lon, q.Lat}
	best, bestDist := -1, math.Inf(1)

	vi.tr.Nearby(
		func(min, max [2]float64, idx int, item bool) float64 {
			if item {
				return geo.PlanarDistance(q, vi.coords[idx])
			}
			return boxDistance(target, min, max)
		},
		func(min, max [2]float64, idx int, dist float64) bool {
			if best == -1 {
				best, bestDist = idx, dist
				return true
			}
			if dist > bestDist {
				return false
			}
			if idx < best {
				best = idx
			}
			return true
		},
	)
	return best, bestDist
}

// boxDistance. planar distance from p to the closest point of the box [min, max].
func boxDistance(p, min, max [2]float64) float64 {
	var sum float64
	for i := 0; i < 2; i++ {
		var d float64
		if p[i] < min[i] {
			d = min[i] - p[i]
		} else if p[i] > max[i] {
			d = p[i] - max[i]
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

type ReportingPoint struct {
	id  int32
	lat float64
	lon float64
}

func NewReportingPoint(id int32, lat, lon float64) ReportingPoint {
	return ReportingPoint{id: id, lat: lat, lon: lon}
}

func (rp ReportingPoint) GetID() int32 {
	return rp.id
}

func (rp ReportingPoint) GetLat() float64 {
	return rp.lat
}

func (rp ReportingPoint) GetLon() float64 {
	return rp.lon
}

// ReportingPointIndex. r-tree over the located reporting points of one region.
type ReportingPointIndex struct {
	tr *rtree.RTreeG[ReportingPoint]
}

func NewReportingPointIndex() *ReportingPointIndex {
	var tr rtree.RTreeG[ReportingPoint]
	return &ReportingPointIndex{
		tr: &tr,
	}
}

func (ri *ReportingPointIndex) Build(points []ReportingPoint, log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.Int("reporting_points", len(points)))
	for _, rp := range points {
		p := [2]float64{rp.lon, rp.lat}
		ri.tr.Insert(p, p, rp)
	}
	log.Info("R-tree spatial index built.")
}

func (ri *ReportingPointIndex) Len() int {
	return ri.tr.Len()
}

// SearchWithinRadius search for all reporting points within radius (in km) from the query point (qLat, qLon),
// closest first.
func (ri *ReportingPointIndex) SearchWithinRadius(qLat, qLon, radius float64) []ReportingPoint {
	south, _ := geo.GetDestinationPoint(qLat, qLon, 180, radius)
	north, _ := geo.GetDestinationPoint(qLat, qLon, 0, radius)
	_, west := geo.GetDestinationPoint(qLat, qLon, 270, radius)
	_, east := geo.GetDestinationPoint(qLat, qLon, 90, radius)

	type hit struct {
		rp   ReportingPoint
		dist float64
	}
	hits := make([]hit, 0, 10)
	ri.tr.Search([2]float64{west, south}, [2]float64{east, north},
		func(min, max [2]float64, data ReportingPoint) bool {
			d := geo.CalculateHaversineDistance(qLat, qLon, data.lat, data.lon)
			if d <= radius {
				hits = append(hits, hit{rp: data, dist: d})
			}
			return true
		})

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].rp.id < hits[j].rp.id
	})
	results := make([]ReportingPoint, 0, len(hits))
	for _, h := range hits {
		results = append(results, h.rp)
	}
	return results
}
