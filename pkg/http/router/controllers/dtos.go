package controllers

import (
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/http/usecases"
	"github.com/dump-dvb/lofi/pkg/util"
)

type nearbyRequest struct {
	Region int64   `json:"region" validate:"min=0"`
	Lat    float64 `json:"lat" validate:"min=-90,max=90"`
	Lon    float64 `json:"lon" validate:"min=-180,max=180"`
	Radius float64 `json:"radius" validate:"gt=0,max=50"`
}

type reportingPointResponse struct {
	ReportingPoint int32   `json:"reporting_point"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Distance       float64 `json:"distance,omitempty"`
}

type locationsResponse struct {
	Region    int64                    `json:"region"`
	Meta      da.RegionMeta            `json:"meta"`
	Locations []reportingPointResponse `json:"locations"`
	BBox      *[4]float64              `json:"bbox,omitempty"`
}

func NewLocationsResponse(region int64, locs da.RegionReportLocations, meta da.RegionMeta) locationsResponse {
	resp := locationsResponse{
		Region:    region,
		Meta:      meta,
		Locations: make([]reportingPointResponse, 0, len(locs)),
	}
	var bb *da.BoundingBox
	for _, rp := range util.SortedKeys(locs) {
		loc := locs[rp]
		resp.Locations = append(resp.Locations, reportingPointResponse{ReportingPoint: rp, Lat: loc.Lat, Lon: loc.Lon})
		if bb == nil {
			bb = da.NewBoundingBox(loc.Lat, loc.Lon, loc.Lat, loc.Lon)
		} else {
			bb.Extend(loc.Lat, loc.Lon)
		}
	}
	if bb != nil {
		arr := bb.Array()
		resp.BBox = &arr
	}
	return resp
}

func NewNearbyResponse(hits []usecases.NearbyReportingPoint) []reportingPointResponse {
	resp := make([]reportingPointResponse, 0, len(hits))
	for _, h := range hits {
		resp = append(resp, reportingPointResponse{
			ReportingPoint: h.ReportingPoint,
			Lat:            h.Location.Lat,
			Lon:            h.Location.Lon,
			Distance:       util.RoundFloat(h.Distance, 4),
		})
	}
	return resp
}

type pathSegmentResponse struct {
	From           int32               `json:"from"`
	To             int32               `json:"to"`
	HistoricalTime uint32              `json:"historical_time"`
	Polyline       string              `json:"polyline"`
	SnapDeviation  float64             `json:"snap_deviation"`
	Positions      map[int]da.Position `json:"positions"`
}

func NewGraphResponse(graph da.RegionGraph) []pathSegmentResponse {
	resp := make([]pathSegmentResponse, 0, graph.Edges())
	for _, from := range util.SortedKeys(graph) {
		for _, seg := range graph[from] {
			resp = append(resp, pathSegmentResponse{
				From:           from,
				To:             seg.NextReportingPoint,
				HistoricalTime: seg.HistoricalTime,
				Polyline:       seg.Polyline,
				SnapDeviation:  seg.SnapDeviation,
				Positions:      seg.Positions,
			})
		}
	}
	return resp
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
