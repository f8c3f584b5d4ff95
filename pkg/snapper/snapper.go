package snapper

import (
	"math"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/dump-dvb/lofi/pkg/spatialindex"
	"go.uber.org/zap"
)

// FindClosestOnTrack. index of the vertex of segment nearest to c (planar distance on
// lat/lon) and its distance; the lowest index wins a tie. -1 for an empty segment.
func FindClosestOnTrack(segment []geo.Coordinate, c geo.Coordinate) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, v := range segment {
		d := geo.PlanarDistance(v, c)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// ConvertList re-indexes path by integer percentage floor(i*100/n). Later points
// overwrite earlier ones sharing a key.
func ConvertList(path []geo.Coordinate) map[int]da.Position {
	positions := make(map[int]da.Position, len(path))
	n := len(path)
	for i, c := range path {
		positions[i*100/n] = da.Position{Lat: c.Lat, Lon: c.Lon}
	}
	return positions
}

type segmentKey struct {
	line  int32
	index int
}

// Snapper matches inferred edges onto line geometries.
type Snapper struct {
	geometries da.LineGeometrySource
	indices    map[segmentKey]*spatialindex.VertexIndex
	log        *zap.Logger
}

func NewSnapper(geometries da.LineGeometrySource, log *zap.Logger) *Snapper {
	return &Snapper{
		geometries: geometries,
		indices:    make(map[segmentKey]*spatialindex.VertexIndex),
		log:        log,
	}
}

func (s *Snapper) vertexIndex(line int32, index int, segment []geo.Coordinate) *spatialindex.VertexIndex {
	key := segmentKey{line: line, index: index}
	vi, ok := s.indices[key]
	if !ok {
		vi = spatialindex.NewVertexIndex(segment)
		s.indices[key] = vi
	}
	return vi
}

// FindIdealTrack. vertices between the matches of prev and next, both included, on the
// geometry segment with the smallest summed match distance. A segment only qualifies if
// prev matches strictly before next. Lines are tried in the given order, then segments in
// order; the first of equal candidates wins. nil if nothing qualifies.
func (s *Snapper) FindIdealTrack(lines []int32, prev, next geo.Coordinate) []geo.Coordinate {
	var (
		best     []geo.Coordinate
		bestCost = math.Inf(1)
	)
	for _, line := range lines {
		for i, segment := range s.geometries.Lookup(line) {
			vi := s.vertexIndex(line, i, segment)
			start, startDist := vi.Nearest(prev)
			end, endDist := vi.Nearest(next)
			if start < 0 || start >= end {
				continue
			}
			if cost := startDist + endDist; cost < bestCost {
				best, bestCost = segment[start:end+1], cost
			}
		}
	}
	return best
}

// SnapEdge. path segment for prev -> next: prev, the snapped vertices, then next.
func (s *Snapper) SnapEdge(lines []int32, prev, next geo.Coordinate) ([]geo.Coordinate, float64) {
	snapped := s.FindIdealTrack(lines, prev, next)
	path := make([]geo.Coordinate, 0, len(snapped)+2)
	path = append(path, prev)
	path = append(path, snapped...)
	path = append(path, next)

	var deviation float64
	if len(snapped) > 0 {
		deviation = math.Max(geo.PointPolylineDistance(snapped, prev), geo.PointPolylineDistance(snapped, next))
	}
	return path, deviation
}

// GeneratePositions snaps every edge of graph whose endpoints both have a location.
// The segments of one source are ordered by destination.
func (s *Snapper) GeneratePositions(graph da.AdjacencyGraph, accumulators da.EdgeAccumulators,
	locations da.RegionReportLocations) da.RegionGraph {
	result := make(da.RegionGraph)
	skipped, empty := 0, 0

	graph.ForEdges(func(from, to int32) {
		prevLoc, okPrev := locations[from]
		nextLoc, okNext := locations[to]
		if !okPrev || !okNext {
			skipped++
			s.log.Debug("edge endpoint without location, skipped", zap.Int32("from", from), zap.Int32("to", to))
			return
		}

		var lines []int32
		historical := pkg.DEFAULT_HISTORICAL_TIME_MS
		if acc, ok := accumulators[da.NewEdgeKey(from, to)]; ok {
			lines = acc.Lines()
			if len(acc.Times()) > 0 {
				historical = uint32(acc.MeanTime())
			}
		}

		path, deviation := s.SnapEdge(lines, prevLoc.Coordinate(), nextLoc.Coordinate())
		if len(path) == 2 {
			empty++
			s.log.Debug("no geometry candidate for edge", zap.Int32("from", from), zap.Int32("to", to))
		}

		result[from] = append(result[from], da.PathSegment{
			HistoricalTime:     historical,
			NextReportingPoint: to,
			Positions:          ConvertList(path),
			Coordinates:        path,
			Polyline:           geo.PolylineFromCoords(path),
			SnapDeviation:      deviation,
		})
	})

	s.log.Info("generated positions", zap.Int("segments", result.Edges()), zap.Int("skipped", skipped),
		zap.Int("without_geometry", empty))
	return result
}
