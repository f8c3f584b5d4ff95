package correlate

import (
	da "github.com/dump-dvb/lofi/pkg/datastructure"
)

// RegionMetaSource. read-only lookup of static region information.
type RegionMetaSource interface {
	Lookup(region int64) (da.RegionMeta, bool)
}

type MapRegionMetaSource map[int64]da.RegionMeta

func (m MapRegionMetaSource) Lookup(region int64) (da.RegionMeta, bool) {
	meta, ok := m[region]
	return meta, ok
}
