package osmparser

import (
	"io"
	"os"
	"strconv"
	"strings"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ReadOverpassGeoJSON reads an overpass-turbo GeoJSON export. LineString and
// MultiLineString features with a numeric "ref" property become segments of that line,
// in feature order. Other features are ignored.
func ReadOverpassGeoJSON(r io.Reader) (da.LineGeometries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "read overpass export")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "parse overpass export")
	}

	lines := make(da.LineGeometries)
	for _, f := range fc.Features {
		line, ok := featureRef(f)
		if !ok {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.LineString:
			addLineString(lines, line, g)
		case orb.MultiLineString:
			for _, ls := range g {
				addLineString(lines, line, ls)
			}
		}
	}
	return lines, nil
}

func ReadOverpassGeoJSONFile(path string) (da.LineGeometries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "open %s", path)
	}
	defer f.Close()
	return ReadOverpassGeoJSON(f)
}

func featureRef(f *geojson.Feature) (int32, bool) {
	raw, ok := f.Properties["ref"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case string:
		ref, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false
		}
		return int32(ref), true
	case float64:
		return int32(v), true
	}
	return 0, false
}

// orb points are (lon, lat)
func addLineString(lines da.LineGeometries, line int32, ls orb.LineString) {
	if len(ls) < 2 {
		return
	}
	segment := make([]geo.Coordinate, 0, len(ls))
	for _, p := range ls {
		segment = append(segment, geo.NewCoordinate(p.Lat(), p.Lon()))
	}
	lines.AddSegment(line, segment)
}
