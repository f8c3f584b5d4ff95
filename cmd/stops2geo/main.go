package main

import (
	"flag"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/export"
	"github.com/dump-dvb/lofi/pkg/logger"
	"go.uber.org/zap"
)

var output = flag.String("output", "./data/stops.geojson", "geojson output file")

// usage: stops2geo [-output file] stops1.json stops2.json ...
func main() {
	flag.Parse()

	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	docs := make([]*da.LocationsDocument, 0, flag.NArg())
	for _, path := range flag.Args() {
		doc, err := export.ReadLocationsFile(path)
		if err != nil {
			logger.Fatal("read stops", zap.String("path", path), zap.Error(err))
		}
		docs = append(docs, doc)
	}

	fc := export.StopsFeatureCollection(docs...)
	if err := export.WriteGeoJSONFile(*output, fc); err != nil {
		logger.Fatal("write geojson", zap.Error(err))
	}
	logger.Info("stops2geo done", zap.Int("features", len(fc.Features)))
}
