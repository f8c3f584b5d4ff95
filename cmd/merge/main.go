package main

import (
	"flag"

	"github.com/dump-dvb/lofi/pkg/correlate"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/engine"
	"github.com/dump-dvb/lofi/pkg/export"
	"github.com/dump-dvb/lofi/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	configDir = flag.String("config", "./data/", "directory containing config.yaml")
	output    = flag.String("output", "./data/stops.json", "merged stops json")
)

// usage: merge [flags] stops1.json stops2.json ...
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
	policy, ok := correlate.AveragingPolicyByName(cfg.Averaging)
	if !ok {
		logger.Fatal("unknown averaging policy", zap.String("averaging", cfg.Averaging))
	}

	if flag.NArg() == 0 {
		logger.Fatal("no stops documents given")
	}
	docs := make([]*da.LocationsDocument, 0, flag.NArg())
	for _, path := range flag.Args() {
		doc, err := export.ReadLocationsFile(path)
		if err != nil {
			logger.Fatal("read stops", zap.String("path", path), zap.Error(err))
		}
		docs = append(docs, doc)
	}

	merged := correlate.MergeDocuments(docs, policy)
	if err := export.WriteLocationsFile(*output, merged); err != nil {
		logger.Fatal("write stops", zap.Error(err))
	}
	logger.Info("merge done", zap.Int("inputs", len(docs)), zap.Int("regions", len(merged.Data)))
}
