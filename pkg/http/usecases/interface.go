package usecases

import (
	"context"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/storage"
)

type ResultStore interface {
	LatestRun(ctx context.Context, kind storage.RunKind) (string, error)
	LoadLocations(ctx context.Context, runID string, region int64) (da.RegionReportLocations, da.RegionMeta, error)
	LoadRegionGraph(ctx context.Context, runID string, region int64) (da.RegionGraph, error)
}
