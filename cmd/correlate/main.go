package main

import (
	"context"
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
	configDir    = flag.String("config", "./data/", "directory containing config.yaml")
	telegrams    = flag.String("telegrams", "", "comma separated R09 telegram csv files (.csv or .csv.bz2)")
	gpxFiles     = flag.String("gpx", "", "comma separated gpx recordings")
	measurements = flag.String("measurements", "", "comma separated measurement interval json files (optional)")
	output       = flag.String("output", "./data/stops.json", "stops json output file")
	geojsonOut   = flag.String("geojson", "", "also write the stops as geojson to this file")
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
	lofi, err := engine.NewEngine(cfg, logger)
	if err != nil {
		logger.Fatal("create engine", zap.Error(err))
	}

	ctx := context.Background()
	doc, err := lofi.Correlate(ctx, engine.CorrelateInput{
		TelegramPaths:    util.SplitList(*telegrams),
		GPXPaths:         util.SplitList(*gpxFiles),
		MeasurementPaths: util.SplitList(*measurements),
	})
	if err != nil {
		logger.Fatal("correlate", zap.Error(err))
	}

	if err := export.WriteLocationsFile(*output, doc); err != nil {
		logger.Fatal("write stops", zap.Error(err))
	}
	if *geojsonOut != "" {
		if err := export.WriteGeoJSONFile(*geojsonOut, export.StopsFeatureCollection(doc)); err != nil {
			logger.Fatal("write geojson", zap.Error(err))
		}
	}

	if cfg.SQLitePath != "" {
		store, err := storage.Connect(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("connect sqlite", zap.Error(err))
		}
		defer store.Close()
		runID, err := lofi.PersistLocations(ctx, store, doc)
		if err != nil {
			logger.Fatal("persist locations", zap.Error(err))
		}
		logger.Info("stored locations run", zap.String("run_id", runID))
	}

	logger.Info("correlation done", zap.String("output", *output), zap.Int("regions", len(doc.Data)))
}
