package gps

import (
	"encoding/xml"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

type gpxDocument struct {
	Tracks []struct {
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// ReadGPX parses every track point of a gpx document into a Track. Points
// without a timestamp cannot be correlated and are skipped.
func ReadGPX(r io.Reader) (*Track, error) {
	var doc gpxDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode gpx")
	}

	track := NewTrack()
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if strings.TrimSpace(p.Time) == "" {
					continue
				}
				t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(p.Time))
				if err != nil {
					return nil, util.WrapErrorf(err, util.ErrMalformedInput, "gpx point time %q", p.Time)
				}
				track.Insert(da.NewGPSFix(t.Unix(), p.Lat, p.Lon))
			}
		}
	}
	return track, nil
}

// ReadGPXFile. ReadGPX on a file, bzip2 compressed when the name ends in .bz2
func ReadGPXFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "open gpx file %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "open bzip2 stream %s", path)
		}
		defer bz.Close()
		r = bz
	}

	track, err := ReadGPX(r)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "read gpx file %s", path)
	}
	return track, nil
}
