package correlate

import (
	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

// MergeDocuments folds several stops documents into one. Estimates of the same
// (region, reporting point) go through policy in document order, reporting points
// ascending; the first non-empty metadata of a region wins.
func MergeDocuments(docs []*da.LocationsDocument, policy AveragingPolicy) *da.LocationsDocument {
	table := NewLocationTable(policy)
	meta := make(map[int64]da.RegionMeta)

	for _, doc := range docs {
		for _, region := range util.SortedKeys(doc.Data) {
			locs := doc.Data[region]
			for _, rp := range util.SortedKeys(locs) {
				est := locs[rp]
				est.Properties = da.LocationProperties{}
				est.Samples = 1
				table.Add(da.LocationKey{Region: region, ReportingPoint: rp}, est)
			}
		}
		for _, region := range util.SortedKeys(doc.Meta) {
			if existing, ok := meta[region]; ok && !existing.IsEmpty() {
				continue
			}
			meta[region] = doc.Meta[region]
		}
	}
	table.Finalize()

	merged := da.NewLocationsDocument()
	generator, version := pkg.GENERATOR, pkg.GENERATOR_VERSION
	merged.Generator = &generator
	merged.GeneratorVersion = &version
	for _, region := range table.Regions() {
		merged.Data[region] = table.Region(region)
	}
	for region, m := range meta {
		merged.Meta[region] = m
	}
	return merged
}
