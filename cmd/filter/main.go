package main

import (
	"bufio"
	"flag"
	"os"

	"github.com/dump-dvb/lofi/pkg/logger"
	"github.com/dump-dvb/lofi/pkg/telegram"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	telegrams    = flag.String("telegrams", "", "comma separated R09 telegram csv files")
	measurements = flag.String("measurements", "", "comma separated measurement interval json files")
	output       = flag.String("output", "", "filtered csv output, stdout when empty")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	intervals, err := telegram.ReadMeasurementIntervals(util.SplitList(*measurements))
	if err != nil {
		logger.Fatal("read measurement intervals", zap.Error(err))
	}
	src, cleanup, err := telegram.OpenAll(util.SplitList(*telegrams))
	if err != nil {
		logger.Fatal("open telegrams", zap.Error(err))
	}
	defer cleanup()

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			logger.Fatal("create output", zap.Error(err))
		}
		defer out.Close()
	}
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	wr := telegram.NewWriter(bw)
	kept, err := wr.Copy(telegram.Filter(src, intervals))
	if err != nil {
		logger.Fatal("filter telegrams", zap.Error(err))
	}
	if err := wr.Flush(); err != nil {
		logger.Fatal("write telegrams", zap.Error(err))
	}

	logger.Info("filter done", zap.Int("kept", kept), zap.Int("intervals", len(intervals)))
}
