package engine

import (
	"context"
	"strings"

	"github.com/dump-dvb/lofi/pkg/correlate"
	"github.com/dump-dvb/lofi/pkg/crayon"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/export"
	"github.com/dump-dvb/lofi/pkg/gps"
	"github.com/dump-dvb/lofi/pkg/osmparser"
	"github.com/dump-dvb/lofi/pkg/snapper"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/dump-dvb/lofi/pkg/telegram"
	"github.com/dump-dvb/lofi/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs the correlate and crayon pipelines from a validated Config.
type Engine struct {
	cfg      Config
	fraction correlate.FractionFunc
	policy   correlate.AveragingPolicy
	log      *zap.Logger
}

func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fraction, ok := correlate.FractionByName(cfg.Interpolation)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown interpolation %q", cfg.Interpolation)
	}
	policy, ok := correlate.AveragingPolicyByName(cfg.Averaging)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown averaging %q", cfg.Averaging)
	}
	return &Engine{
		cfg:      cfg,
		fraction: fraction,
		policy:   policy,
		log:      log,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) AveragingPolicy() correlate.AveragingPolicy {
	return e.policy
}

type CorrelateInput struct {
	TelegramPaths    []string
	GPXPaths         []string
	MeasurementPaths []string // optional
}

// Correlate builds the stops document from telegram csv files and gpx recordings.
// GPS and measurement files are loaded concurrently; correlation itself is sequential.
func (e *Engine) Correlate(ctx context.Context, in CorrelateInput) (*da.LocationsDocument, error) {
	var (
		track     *gps.Track
		intervals telegram.MeasurementIntervals
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		track, err = gps.LoadTracks(in.GPXPaths, e.log)
		return err
	})
	if len(in.MeasurementPaths) > 0 {
		g.Go(func() error {
			var err error
			intervals, err = telegram.ReadMeasurementIntervals(in.MeasurementPaths)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	src, cleanup, err := telegram.OpenAll(in.TelegramPaths)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if intervals != nil {
		src = telegram.Filter(src, intervals)
	}

	return e.CorrelateSource(src, track)
}

// CorrelateSource. Correlate on already loaded inputs
func (e *Engine) CorrelateSource(src telegram.Source, index gps.TrackIndex) (*da.LocationsDocument, error) {
	pipeline := correlate.NewPipeline(
		correlate.NewCorrelator(index, e.cfg.CorrelationWindow),
		e.fraction, e.policy,
		correlate.MapRegionMetaSource(e.cfg.Regions),
		e.log,
	)
	return pipeline.Run(src)
}

type CrayonInput struct {
	TelegramPaths []string
	StopsPath     string
	// .geojson overpass export, otherwise an osm file (.pbf, .osm, .osm.bz2)
	GeometryPath string
}

type CrayonResult struct {
	Region       int64
	Accumulators da.EdgeAccumulators
	Graph        da.AdjacencyGraph
	Locations    da.RegionReportLocations
	Paths        da.RegionGraph
}

// Crayon infers the reporting point graph of the configured region and snaps it onto
// the line geometries.
func (e *Engine) Crayon(ctx context.Context, in CrayonInput) (*CrayonResult, error) {
	var (
		doc        *da.LocationsDocument
		geometries da.LineGeometries
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = export.ReadLocationsFile(in.StopsPath)
		return err
	})
	g.Go(func() error {
		var err error
		geometries, err = LoadGeometries(in.GeometryPath, e.log)
		return err
	})

	src, cleanup, err := telegram.OpenAll(in.TelegramPaths)
	if err != nil {
		_ = g.Wait()
		return nil, err
	}
	defer cleanup()

	analyser := crayon.NewAnalyser(e.cfg.Region, e.log)
	consumeErr := analyser.Consume(src)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if consumeErr != nil {
		return nil, consumeErr
	}

	locations, ok := doc.Data[e.cfg.Region]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "stops document has no region %d", e.cfg.Region)
	}
	return e.Analyse(analyser, locations, geometries), nil
}

// Analyse finalises the analyser's edges and snaps them.
func (e *Engine) Analyse(analyser *crayon.Analyser, locations da.RegionReportLocations,
	geometries da.LineGeometrySource) *CrayonResult {
	graph := analyser.Finalise()
	paths := snapper.NewSnapper(geometries, e.log).GeneratePositions(graph, analyser.Accumulators(), locations)
	return &CrayonResult{
		Region:       analyser.Region(),
		Accumulators: analyser.Accumulators(),
		Graph:        graph,
		Locations:    locations,
		Paths:        paths,
	}
}

// LoadGeometries picks the reader by file name.
func LoadGeometries(path string, log *zap.Logger) (da.LineGeometries, error) {
	if strings.HasSuffix(path, ".geojson") || strings.HasSuffix(path, ".json") {
		return osmparser.ReadOverpassGeoJSONFile(path)
	}
	return osmparser.NewLineParser(log).ParseFile(path)
}

// PersistLocations stores doc as a new locations run and returns the run id.
func (e *Engine) PersistLocations(ctx context.Context, store *storage.Store, doc *da.LocationsDocument) (string, error) {
	return store.SaveLocations(ctx, doc)
}

// PersistGraph stores the snapped graph of res as a new graph run.
func (e *Engine) PersistGraph(ctx context.Context, store *storage.Store, res *CrayonResult) (string, error) {
	return store.SaveRegionGraph(ctx, res.Region, res.Paths)
}
