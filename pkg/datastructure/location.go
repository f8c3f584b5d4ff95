package datastructure

import (
	"github.com/dump-dvb/lofi/pkg/geo"
)

type LocationKey struct {
	Region         int64
	ReportingPoint int32
}

type Projected struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type LocationProperties struct {
	Epsg3857 *Projected `json:"epsg3857,omitempty"`
}

// LocationEstimate. inferred coordinate of one reporting point.
type LocationEstimate struct {
	Lat        float64            `json:"lat"`
	Lon        float64            `json:"lon"`
	Properties LocationProperties `json:"properties"`

	// number of samples folded into the estimate
	Samples int `json:"-"`
}

func NewLocationEstimate(lat, lon float64) LocationEstimate {
	return LocationEstimate{Lat: lat, Lon: lon, Samples: 1}
}

func (l LocationEstimate) Coordinate() geo.Coordinate {
	return geo.NewCoordinate(l.Lat, l.Lon)
}

// UpdateEPSG3857 stores the web mercator projection of the current lat/lon.
func (l *LocationEstimate) UpdateEPSG3857() {
	x, y := geo.ToEPSG3857(l.Lat, l.Lon)
	l.Properties.Epsg3857 = &Projected{X: x, Y: y}
}

// RegionReportLocations. reporting point -> location, one region
type RegionReportLocations map[int32]LocationEstimate

type RegionMeta struct {
	Frequency *uint64  `json:"frequency" mapstructure:"frequency"`
	CityName  *string  `json:"city_name" mapstructure:"city_name"`
	TypeR09   *string  `json:"type_r09" mapstructure:"type_r09"`
	Lat       *float64 `json:"lat" mapstructure:"lat"`
	Lon       *float64 `json:"lon" mapstructure:"lon"`
}

func (m RegionMeta) IsEmpty() bool {
	return m.Frequency == nil && m.CityName == nil && m.TypeR09 == nil && m.Lat == nil && m.Lon == nil
}

// LocationsDocument. the persisted stops document: locations and metadata per region.
type LocationsDocument struct {
	Data             map[int64]RegionReportLocations `json:"data"`
	Meta             map[int64]RegionMeta            `json:"meta"`
	Generator        *string                         `json:"generator"`
	GeneratorVersion *string                         `json:"generator_version"`
}

func NewLocationsDocument() *LocationsDocument {
	return &LocationsDocument{
		Data: make(map[int64]RegionReportLocations),
		Meta: make(map[int64]RegionMeta),
	}
}

// BoundingBox of all locations of region, nil if the region has none.
func (d *LocationsDocument) BoundingBox(region int64) *BoundingBox {
	var bb *BoundingBox
	for _, loc := range d.Data[region] {
		if bb == nil {
			bb = NewBoundingBox(loc.Lat, loc.Lon, loc.Lat, loc.Lon)
			continue
		}
		bb.Extend(loc.Lat, loc.Lon)
	}
	return bb
}
