package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/export"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const telegramsCSV = `time,region,reporting_point,request_status,line,run_number
2022-10-01T10:00:00Z,0,100,0,3,14
2022-10-01T10:02:00Z,0,200,0,3,14
2022-10-01T10:02:01Z,0,200,3,3,14
2022-10-01T10:04:00Z,0,300,0,3,14
2022-10-01T10:04:30Z,1,900,0,3,14
`

var trackStart = time.Date(2022, 10, 1, 9, 59, 0, 0, time.UTC)

// one fix per second heading north from 51.0, 0.0001 degree per second
func writeGPX(t *testing.T, path string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><gpx version="1.1"><trk><trkseg>`)
	for k := 0; k <= 400; k++ {
		ts := trackStart.Add(time.Duration(k) * time.Second).Format(time.RFC3339)
		fmt.Fprintf(&sb, `<trkpt lat="%.4f" lon="13.7000"><time>%s</time></trkpt>`, 51.0+float64(k)*0.0001, ts)
	}
	sb.WriteString(`</trkseg></trk></gpx>`)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

// line 3 runs along the gps track, vertices every 0.001 degree
func writeOverpass(t *testing.T, path string) {
	t.Helper()
	coords := make([]string, 0, 51)
	for i := 0; i <= 50; i++ {
		coords = append(coords, fmt.Sprintf("[13.7, %.3f]", 51.0+float64(i)*0.001))
	}
	data := fmt.Sprintf(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"ref":"3"},
		"geometry":{"type":"LineString","coordinates":[%s]}}]}`, strings.Join(coords, ","))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

type fixture struct {
	telegrams string
	gpx       string
	overpass  string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	f := fixture{
		telegrams: filepath.Join(dir, "telegrams.csv"),
		gpx:       filepath.Join(dir, "ride.gpx"),
		overpass:  filepath.Join(dir, "lines.geojson"),
	}
	require.NoError(t, os.WriteFile(f.telegrams, []byte(telegramsCSV), 0o644))
	writeGPX(t, f.gpx)
	writeOverpass(t, f.overpass)
	return f
}

func newEngine(t *testing.T, mutate func(cfg *Config)) *Engine {
	cfg := DefaultConfig()
	city := "Dresden"
	cfg.Regions[0] = da.RegionMeta{CityName: &city}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{name: "window too small", mutate: func(cfg *Config) { cfg.CorrelationWindow = 0 }},
		{name: "window too large", mutate: func(cfg *Config) { cfg.CorrelationWindow = 61 }},
		{name: "unknown interpolation", mutate: func(cfg *Config) { cfg.Interpolation = "cubic" }},
		{name: "unknown averaging", mutate: func(cfg *Config) { cfg.Averaging = "median" }},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, zap.NewNop())
			require.Error(t, err)
			assert.Equal(t, util.ErrBadParamInput, util.ErrorCode(err))
		})
	}
}

func TestCorrelate(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, nil)
	in := CorrelateInput{TelegramPaths: []string{f.telegrams}, GPXPaths: []string{f.gpx}}

	doc, err := e.Correlate(context.Background(), in)
	require.NoError(t, err)

	require.Contains(t, doc.Data, int64(0))
	require.Contains(t, doc.Data, int64(1))
	for _, rp := range []int32{100, 200, 300} {
		assert.Contains(t, doc.Data[0], rp)
	}
	// 10:00:00 is 60 s into the track, the before fix dominates the sum-denominator fraction
	assert.InDelta(t, 51.0059, doc.Data[0][100].Lat, 1e-6)
	assert.Equal(t, "Dresden", *doc.Meta[0].CityName)
	assert.True(t, doc.Meta[1].IsEmpty())

	again, err := e.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestCorrelateWithMeasurements(t *testing.T) {
	f := newFixture(t)
	measurements := filepath.Join(filepath.Dir(f.telegrams), "wartrammer.json")
	require.NoError(t, os.WriteFile(measurements,
		[]byte(`[{"start":"2022-10-01T09:59:00Z","stop":"2022-10-01T10:03:00Z","line":3,"run":14}]`), 0o644))

	e := newEngine(t, nil)
	doc, err := e.Correlate(context.Background(), CorrelateInput{
		TelegramPaths:    []string{f.telegrams},
		GPXPaths:         []string{f.gpx},
		MeasurementPaths: []string{measurements},
	})
	require.NoError(t, err)
	assert.Len(t, doc.Data, 1)
	assert.Contains(t, doc.Data[0], int32(200))
	assert.NotContains(t, doc.Data[0], int32(300))
}

func TestCorrelateMissingInput(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Correlate(context.Background(), CorrelateInput{
		TelegramPaths: []string{filepath.Join(t.TempDir(), "missing.csv")},
	})
	require.Error(t, err)
}

func TestCrayon(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, nil)
	ctx := context.Background()

	doc, err := e.Correlate(ctx, CorrelateInput{TelegramPaths: []string{f.telegrams}, GPXPaths: []string{f.gpx}})
	require.NoError(t, err)
	stops := filepath.Join(filepath.Dir(f.telegrams), "stops.json")
	require.NoError(t, export.WriteLocationsFile(stops, doc))

	in := CrayonInput{TelegramPaths: []string{f.telegrams}, StopsPath: stops, GeometryPath: f.overpass}
	res, err := e.Crayon(ctx, in)
	require.NoError(t, err)

	assert.True(t, res.Graph.HasEdge(100, 200))
	assert.True(t, res.Graph.HasEdge(200, 300))
	assert.Equal(t, 2, res.Graph.NumberOfEdges())

	require.Len(t, res.Paths[100], 1)
	seg := res.Paths[100][0]
	assert.Equal(t, int32(200), seg.NextReportingPoint)
	assert.Equal(t, uint32(120000), seg.HistoricalTime)
	// both stops plus vertices 51.006 .. 51.018
	assert.Len(t, seg.Coordinates, 15)

	again, err := e.Crayon(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, res.Paths, again.Paths)

	store, err := storage.Connect(ctx, filepath.Join(t.TempDir(), "lofi.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	runID, err := e.PersistGraph(ctx, store, res)
	require.NoError(t, err)
	stored, err := store.LoadRegionGraph(ctx, runID, 0)
	require.NoError(t, err)
	assert.Equal(t, seg.Positions, stored[100][0].Positions)

	locRun, err := e.PersistLocations(ctx, store, doc)
	require.NoError(t, err)
	locs, _, err := store.LoadLocations(ctx, locRun, 0)
	require.NoError(t, err)
	assert.Len(t, locs, 3)
}

func TestCrayonUnknownRegion(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, func(cfg *Config) { cfg.Region = 7 })
	ctx := context.Background()

	doc, err := e.Correlate(ctx, CorrelateInput{TelegramPaths: []string{f.telegrams}, GPXPaths: []string{f.gpx}})
	require.NoError(t, err)
	stops := filepath.Join(filepath.Dir(f.telegrams), "stops.json")
	require.NoError(t, export.WriteLocationsFile(stops, doc))

	_, err = e.Crayon(ctx, CrayonInput{TelegramPaths: []string{f.telegrams}, StopsPath: stops, GeometryPath: f.overpass})
	require.Error(t, err)
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(err))
}
