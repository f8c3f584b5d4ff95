package datastructure

import (
	"github.com/dump-dvb/lofi/pkg/geo"
)

// LineGeometrySource. vertex sequences (direction of travel) of a line; nil when unknown.
type LineGeometrySource interface {
	Lookup(line int32) [][]geo.Coordinate
}

// LineGeometries. line id -> geometry segments
type LineGeometries map[int32][][]geo.Coordinate

func (lg LineGeometries) Lookup(line int32) [][]geo.Coordinate {
	return lg[line]
}

func (lg LineGeometries) AddSegment(line int32, segment []geo.Coordinate) {
	lg[line] = append(lg[line], segment)
}

type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PathSegment. snapped path from one reporting point to the next one.
type PathSegment struct {
	HistoricalTime     uint32           `json:"historical_time"`
	NextReportingPoint int32            `json:"next_reporting_point"`
	Positions          map[int]Position `json:"positions"`

	Coordinates   []geo.Coordinate `json:"coordinates,omitempty"`
	Polyline      string           `json:"polyline,omitempty"`
	SnapDeviation float64          `json:"snap_deviation"`
}

// RegionGraph. source reporting point -> outgoing path segments
type RegionGraph map[int32][]PathSegment

// Edges. number of path segments
func (rg RegionGraph) Edges() int {
	n := 0
	for _, segs := range rg {
		n += len(segs)
	}
	return n
}
