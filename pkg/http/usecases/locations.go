package usecases

import (
	"context"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/dump-dvb/lofi/pkg/spatialindex"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/dump-dvb/lofi/pkg/util"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// regions kept in memory per cache
const regionCacheSize = 64

type regionKey struct {
	runID  string
	region int64
}

type regionLocations struct {
	locations da.RegionReportLocations
	meta      da.RegionMeta
	index     *spatialindex.ReportingPointIndex
}

type NearbyReportingPoint struct {
	ReportingPoint int32
	Location       da.LocationEstimate
	Distance       float64 // km
}

// LocationService answers queries on the latest stored runs. Loaded regions are cached
// per run, so a new run is picked up on the next request.
type LocationService struct {
	log        *zap.Logger
	store      ResultStore
	locCache   *lru.Cache[regionKey, *regionLocations]
	graphCache *lru.Cache[regionKey, da.RegionGraph]
}

func NewLocationService(log *zap.Logger, store ResultStore) (*LocationService, error) {
	locCache, err := lru.New[regionKey, *regionLocations](regionCacheSize)
	if err != nil {
		return nil, err
	}
	graphCache, err := lru.New[regionKey, da.RegionGraph](regionCacheSize)
	if err != nil {
		return nil, err
	}
	return &LocationService{
		log:        log,
		store:      store,
		locCache:   locCache,
		graphCache: graphCache,
	}, nil
}

func (ls *LocationService) regionLocations(ctx context.Context, region int64) (*regionLocations, error) {
	runID, err := ls.store.LatestRun(ctx, storage.RunKindLocations)
	if err != nil {
		return nil, err
	}
	key := regionKey{runID: runID, region: region}
	if cached, ok := ls.locCache.Get(key); ok {
		return cached, nil
	}

	locs, meta, err := ls.store.LoadLocations(ctx, runID, region)
	if err != nil {
		return nil, err
	}
	points := make([]spatialindex.ReportingPoint, 0, len(locs))
	for _, rp := range util.SortedKeys(locs) {
		points = append(points, spatialindex.NewReportingPoint(rp, locs[rp].Lat, locs[rp].Lon))
	}
	index := spatialindex.NewReportingPointIndex()
	index.Build(points, ls.log)

	entry := &regionLocations{locations: locs, meta: meta, index: index}
	ls.locCache.Add(key, entry)
	return entry, nil
}

func (ls *LocationService) Locations(ctx context.Context, region int64) (da.RegionReportLocations, da.RegionMeta, error) {
	entry, err := ls.regionLocations(ctx, region)
	if err != nil {
		return nil, da.RegionMeta{}, err
	}
	return entry.locations, entry.meta, nil
}

// Nearby. reporting points of region within radius km of (lat, lon), closest first.
func (ls *LocationService) Nearby(ctx context.Context, region int64, lat, lon, radius float64) ([]NearbyReportingPoint, error) {
	entry, err := ls.regionLocations(ctx, region)
	if err != nil {
		return nil, err
	}
	hits := entry.index.SearchWithinRadius(lat, lon, radius)
	result := make([]NearbyReportingPoint, 0, len(hits))
	for _, h := range hits {
		result = append(result, NearbyReportingPoint{
			ReportingPoint: h.GetID(),
			Location:       entry.locations[h.GetID()],
			Distance:       geo.CalculateHaversineDistance(lat, lon, h.GetLat(), h.GetLon()),
		})
	}
	return result, nil
}

func (ls *LocationService) Graph(ctx context.Context, region int64) (da.RegionGraph, error) {
	runID, err := ls.store.LatestRun(ctx, storage.RunKindGraph)
	if err != nil {
		return nil, err
	}
	key := regionKey{runID: runID, region: region}
	if cached, ok := ls.graphCache.Get(key); ok {
		return cached, nil
	}
	graph, err := ls.store.LoadRegionGraph(ctx, runID, region)
	if err != nil {
		return nil, err
	}
	ls.graphCache.Add(key, graph)
	return graph, nil
}
