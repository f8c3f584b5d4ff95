package correlate

import (
	"sort"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

// AveragingPolicy folds a new sample into the stored estimate of the same key.
type AveragingPolicy interface {
	Merge(existing *da.LocationEstimate, sample da.LocationEstimate)
}

// PairwiseAverage. the stored value becomes (sample + stored) / 2, so older samples
// lose half their weight with every new one. Output of existing datasets depends on it.
type PairwiseAverage struct{}

func (PairwiseAverage) Merge(existing *da.LocationEstimate, sample da.LocationEstimate) {
	existing.Lat = (sample.Lat + existing.Lat) / 2
	existing.Lon = (sample.Lon + existing.Lon) / 2
	existing.Samples += sample.Samples
}

// IncrementalMean. true arithmetic mean, weighted by sample counts.
type IncrementalMean struct{}

func (IncrementalMean) Merge(existing *da.LocationEstimate, sample da.LocationEstimate) {
	n := float64(existing.Samples)
	m := float64(sample.Samples)
	if n+m == 0 {
		return
	}
	existing.Lat = (existing.Lat*n + sample.Lat*m) / (n + m)
	existing.Lon = (existing.Lon*n + sample.Lon*m) / (n + m)
	existing.Samples += sample.Samples
}

// AveragingPolicyByName maps the config names "pairwise" and "mean".
func AveragingPolicyByName(name string) (AveragingPolicy, bool) {
	switch name {
	case "", "pairwise":
		return PairwiseAverage{}, true
	case "mean":
		return IncrementalMean{}, true
	default:
		return nil, false
	}
}

// LocationTable. one estimate per (region, reporting point).
type LocationTable struct {
	policy  AveragingPolicy
	entries map[da.LocationKey]*da.LocationEstimate
}

func NewLocationTable(policy AveragingPolicy) *LocationTable {
	return &LocationTable{
		policy:  policy,
		entries: make(map[da.LocationKey]*da.LocationEstimate),
	}
}

// Add inserts est as-is for a new key, otherwise merges it with the policy.
func (lt *LocationTable) Add(key da.LocationKey, est da.LocationEstimate) {
	if est.Samples == 0 {
		est.Samples = 1
	}
	existing, ok := lt.entries[key]
	if !ok {
		lt.entries[key] = &est
		return
	}
	lt.policy.Merge(existing, est)
}

func (lt *LocationTable) Get(key da.LocationKey) (da.LocationEstimate, bool) {
	est, ok := lt.entries[key]
	if !ok {
		return da.LocationEstimate{}, false
	}
	return *est, true
}

func (lt *LocationTable) Len() int {
	return len(lt.entries)
}

// Finalize computes the projected coordinates of every estimate.
func (lt *LocationTable) Finalize() {
	for _, est := range lt.entries {
		est.UpdateEPSG3857()
	}
}

// Regions. all regions with at least one estimate, ascending
func (lt *LocationTable) Regions() []int64 {
	seen := make(map[int64]struct{})
	for key := range lt.entries {
		seen[key.Region] = struct{}{}
	}
	return util.SortedKeys(seen)
}

// Region copies the estimates of one region.
func (lt *LocationTable) Region(region int64) da.RegionReportLocations {
	locs := make(da.RegionReportLocations)
	for key, est := range lt.entries {
		if key.Region == region {
			locs[key.ReportingPoint] = *est
		}
	}
	return locs
}

// Keys. all keys ordered by region then reporting point
func (lt *LocationTable) Keys() []da.LocationKey {
	keys := make([]da.LocationKey, 0, len(lt.entries))
	for k := range lt.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Region != keys[j].Region {
			return keys[i].Region < keys[j].Region
		}
		return keys[i].ReportingPoint < keys[j].ReportingPoint
	})
	return keys
}
