package controllers

import (
	"errors"
	"net/http"
	"strconv"

	helper "github.com/dump-dvb/lofi/pkg/http/router/routerhelper"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type locationAPI struct {
	locationService LocationService
	log             *zap.Logger
}

func New(locationService LocationService, log *zap.Logger) *locationAPI {
	return &locationAPI{
		locationService: locationService,
		log:             log,
	}
}

func (api *locationAPI) Routes(group *helper.RouteGroup) {
	group.GET("/regions/:region/locations", api.locations)
	group.GET("/regions/:region/locations/nearby", api.nearby)
	group.GET("/regions/:region/graph", api.graph)
}

func parseRegion(p httprouter.Params) (int64, error) {
	region, err := strconv.ParseInt(p.ByName("region"), 10, 64)
	if err != nil || region < 0 {
		return 0, errors.New("region must be a non-negative integer")
	}
	return region, nil
}

func (api *locationAPI) locations(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	region, err := parseRegion(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	locs, meta, err := api.locationService.Locations(r.Context(), region)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewLocationsResponse(region, locs, meta)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *locationAPI) nearby(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request nearbyRequest
		err     error
	)

	request.Region, err = parseRegion(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	query := r.URL.Query()
	request.Lat, err = strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("lat is required and must be a valid float"))
		return
	}
	request.Lon, err = strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("lon is required and must be a valid float"))
		return
	}
	request.Radius, err = strconv.ParseFloat(query.Get("radius"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("radius is required and must be a valid float"))
		return
	}
	if err := util.ValidateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	hits, err := api.locationService.Nearby(r.Context(), request.Region, request.Lat, request.Lon, request.Radius)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewNearbyResponse(hits)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *locationAPI) graph(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	region, err := parseRegion(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	graph, err := api.locationService.Graph(r.Context(), region)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewGraphResponse(graph)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
