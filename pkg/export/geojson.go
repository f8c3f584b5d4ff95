package export

import (
	"fmt"
	"io"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// StopsFeatureCollection. one Point per reporting point, property name = reporting point id.
func StopsFeatureCollection(docs ...*da.LocationsDocument) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, doc := range docs {
		for _, region := range util.SortedKeys(doc.Data) {
			locs := doc.Data[region]
			for _, rp := range util.SortedKeys(locs) {
				loc := locs[rp]
				f := geojson.NewFeature(orb.Point{loc.Lon, loc.Lat})
				f.Properties["name"] = fmt.Sprintf("%d", rp)
				f.Properties["region"] = region
				fc.Append(f)
			}
		}
	}
	return fc
}

// GraphFeatureCollection draws every located reporting point of the graph once and a
// straight line per edge. Edges with an unknown endpoint are left out.
func GraphFeatureCollection(graph da.AdjacencyGraph, locations da.RegionReportLocations) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	drawn := make(map[int32]struct{})
	point := func(rp int32, loc da.LocationEstimate) {
		if _, ok := drawn[rp]; ok {
			return
		}
		drawn[rp] = struct{}{}
		f := geojson.NewFeature(orb.Point{loc.Lon, loc.Lat})
		f.Properties["name"] = fmt.Sprintf("%d", rp)
		fc.Append(f)
	}

	graph.ForEdges(func(from, to int32) {
		a, okFrom := locations[from]
		b, okTo := locations[to]
		if !okFrom || !okTo {
			return
		}
		point(from, a)
		point(to, b)
		f := geojson.NewFeature(orb.LineString{{a.Lon, a.Lat}, {b.Lon, b.Lat}})
		f.Properties["from"] = from
		f.Properties["to"] = to
		fc.Append(f)
	})
	return fc
}

// PointsFeatureCollection. every stored position of every path segment as a Point, one
// color per segment.
func PointsFeatureCollection(graph da.RegionGraph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, from := range util.SortedKeys(graph) {
		for _, seg := range graph[from] {
			color := SegmentColor(from, seg.NextReportingPoint)
			for _, key := range util.SortedKeys(seg.Positions) {
				pos := seg.Positions[key]
				f := geojson.NewFeature(orb.Point{pos.Lon, pos.Lat})
				f.Properties["color"] = color
				f.Properties["percentage"] = key
				fc.Append(f)
			}
		}
	}
	return fc
}

// SegmentColor. stable hex color for an edge
func SegmentColor(from, to int32) string {
	h := uint32(from)*2654435761 ^ uint32(to)*40503
	return fmt.Sprintf("#%06x", h&0xffffff)
}

func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write geojson")
	}
	return nil
}

func WriteGeoJSONFile(path string, fc *geojson.FeatureCollection) error {
	return writeFile(path, func(w io.Writer) error { return WriteGeoJSON(w, fc) })
}
