package controllers

import (
	"context"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/http/usecases"
)

type LocationService interface {
	Locations(ctx context.Context, region int64) (da.RegionReportLocations, da.RegionMeta, error)
	Nearby(ctx context.Context, region int64, lat, lon, radius float64) ([]usecases.NearbyReportingPoint, error)
	Graph(ctx context.Context, region int64) (da.RegionGraph, error)
}
