package usecases

import (
	"context"
	"testing"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	runs      map[storage.RunKind]string
	locations map[string]map[int64]da.RegionReportLocations
	graphs    map[string]map[int64]da.RegionGraph

	locationLoads int
	graphLoads    int
}

func (f *fakeStore) LatestRun(_ context.Context, kind storage.RunKind) (string, error) {
	id, ok := f.runs[kind]
	if !ok {
		return "", util.WrapErrorf(nil, util.ErrNotFound, "no %s run stored", kind)
	}
	return id, nil
}

func (f *fakeStore) LoadLocations(_ context.Context, runID string, region int64) (da.RegionReportLocations, da.RegionMeta, error) {
	f.locationLoads++
	locs, ok := f.locations[runID][region]
	if !ok {
		return nil, da.RegionMeta{}, util.WrapErrorf(nil, util.ErrNotFound, "region %d has no locations", region)
	}
	return locs, da.RegionMeta{}, nil
}

func (f *fakeStore) LoadRegionGraph(_ context.Context, runID string, region int64) (da.RegionGraph, error) {
	f.graphLoads++
	graph, ok := f.graphs[runID][region]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "region %d has no graph", region)
	}
	return graph, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs: map[storage.RunKind]string{
			storage.RunKindLocations: "run-1",
			storage.RunKindGraph:     "run-2",
		},
		locations: map[string]map[int64]da.RegionReportLocations{
			"run-1": {
				0: {
					100: da.NewLocationEstimate(51.0500, 13.7300),
					200: da.NewLocationEstimate(51.0510, 13.7300), // ~111 m north
					300: da.NewLocationEstimate(51.1500, 13.7300), // ~11 km north
				},
			},
			"run-3": {
				0: {100: da.NewLocationEstimate(52, 14)},
			},
		},
		graphs: map[string]map[int64]da.RegionGraph{
			"run-2": {
				0: {100: {{NextReportingPoint: 200, HistoricalTime: 120}}},
			},
		},
	}
}

func TestLocationService_Locations(t *testing.T) {
	store := newFakeStore()
	svc, err := NewLocationService(zap.NewNop(), store)
	require.NoError(t, err)

	locs, _, err := svc.Locations(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, locs, 3)

	_, _, err = svc.Locations(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, store.locationLoads, "second call is served from cache")

	// a newer run invalidates the cached region
	store.runs[storage.RunKindLocations] = "run-3"
	locs, _, err = svc.Locations(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, locs, 1)
	assert.Equal(t, 2, store.locationLoads)

	_, _, err = svc.Locations(context.Background(), 9)
	assert.ErrorIs(t, util.ErrorCode(err), util.ErrNotFound)
}

func TestLocationService_Nearby(t *testing.T) {
	svc, err := NewLocationService(zap.NewNop(), newFakeStore())
	require.NoError(t, err)

	tests := []struct {
		name   string
		radius float64
		want   []int32
	}{
		{"only itself", 0.05, []int32{100}},
		{"close neighbour", 0.5, []int32{100, 200}},
		{"everything", 20, []int32{100, 200, 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := svc.Nearby(context.Background(), 0, 51.05, 13.73, tt.radius)
			require.NoError(t, err)
			got := make([]int32, 0, len(hits))
			for _, h := range hits {
				got = append(got, h.ReportingPoint)
				assert.LessOrEqual(t, h.Distance, tt.radius)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationService_Graph(t *testing.T) {
	store := newFakeStore()
	svc, err := NewLocationService(zap.NewNop(), store)
	require.NoError(t, err)

	graph, err := svc.Graph(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, graph.Edges())

	_, err = svc.Graph(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, store.graphLoads)

	delete(store.runs, storage.RunKindGraph)
	_, err = svc.Graph(context.Background(), 0)
	assert.ErrorIs(t, util.ErrorCode(err), util.ErrNotFound)
}
