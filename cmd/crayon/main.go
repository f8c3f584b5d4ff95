package main

import (
	"context"
	"errors"
	"flag"

	"github.com/dump-dvb/lofi/pkg/engine"
	"github.com/dump-dvb/lofi/pkg/export"
	"github.com/dump-dvb/lofi/pkg/logger"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	configDir = flag.String("config", "./data/", "directory containing config.yaml")
	telegrams = flag.String("telegrams", "", "comma separated R09 telegram csv files")
	stops     = flag.String("stops", "./data/stops.json", "stops json produced by correlate")
	geometry  = flag.String("geometry", "", "line geometries: osm file (.pbf, .osm, .osm.bz2) or overpass .geojson export")
	region    = flag.Int64("region", -1, "region to analyse, overrides the config value when >= 0")
	output    = flag.String("output", "./data/graph.json", "region graph json, other regions in an existing file are kept")
	graphGeo  = flag.String("graph-geojson", "", "write the filtered reporting point graph as geojson")
	pointsGeo = flag.String("points-geojson", "", "write the snapped path points as geojson")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := engine.LoadConfig(*configDir)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *region >= 0 {
		cfg.Region = *region
	}
	lofi, err := engine.NewEngine(cfg, logger)
	if err != nil {
		logger.Fatal("create engine", zap.Error(err))
	}

	ctx := context.Background()
	res, err := lofi.Crayon(ctx, engine.CrayonInput{
		TelegramPaths: util.SplitList(*telegrams),
		StopsPath:     *stops,
		GeometryPath:  *geometry,
	})
	if err != nil {
		logger.Fatal("crayon", zap.Error(err))
	}

	graphs, err := export.ReadRegionGraphsFile(*output)
	if err != nil {
		if !errors.Is(util.ErrorCode(err), util.ErrNotFound) {
			logger.Fatal("read existing graph", zap.Error(err))
		}
		graphs = make(export.RegionGraphs)
	}
	graphs[res.Region] = res.Paths
	if err := export.WriteRegionGraphsFile(*output, graphs); err != nil {
		logger.Fatal("write graph", zap.Error(err))
	}

	if *graphGeo != "" {
		fc := export.GraphFeatureCollection(res.Graph, res.Locations)
		if err := export.WriteGeoJSONFile(*graphGeo, fc); err != nil {
			logger.Fatal("write graph geojson", zap.Error(err))
		}
	}
	if *pointsGeo != "" {
		if err := export.WriteGeoJSONFile(*pointsGeo, export.PointsFeatureCollection(res.Paths)); err != nil {
			logger.Fatal("write points geojson", zap.Error(err))
		}
	}

	if cfg.SQLitePath != "" {
		store, err := storage.Connect(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("connect sqlite", zap.Error(err))
		}
		defer store.Close()
		runID, err := lofi.PersistGraph(ctx, store, res)
		if err != nil {
			logger.Fatal("persist graph", zap.Error(err))
		}
		logger.Info("stored graph run", zap.String("run_id", runID))
	}

	logger.Info("crayon done", zap.Int64("region", res.Region),
		zap.Int("edges", res.Graph.NumberOfEdges()), zap.Int("path_segments", res.Paths.Edges()))
}
